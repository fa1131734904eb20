package suggest

var basePools = map[Bundle][]string{
	BundleRain: {
		"Perfect weather for a cozy café and a good book.",
		"Visit a museum or gallery while it pours outside.",
		"Try a local cooking class and stay dry.",
		"Warm up with a bowl of noodle soup at a local spot.",
		"Catch a film or a live show indoors.",
	},
	BundleNight: {
		"Take an evening stroll and enjoy the city lights.",
		"Find a rooftop spot for stargazing.",
		"Explore the night market for street food.",
		"Unwind with live music at a local bar.",
		"Plan tomorrow's route over a relaxed dinner.",
	},
	BundleClear: {
		"Great day for a hike with a view.",
		"Rent a bike and explore the neighbourhood.",
		"Pack a picnic and head to the nearest park.",
		"Chase a sunset from the highest viewpoint around.",
		"Join a walking tour of the old town.",
	},
	BundleDefault: {
		"Wander the local streets and find a hidden café.",
		"Browse a local market for handmade souvenirs.",
		"Visit a nearby temple or heritage site.",
		"A good day for a short walk between sights.",
		"Check out a local bookstore or craft shop.",
	},
}

// Gazetteer is the built-in list of notable places with their own suggestions.
var Gazetteer = []Place{
	{
		Keywords: []string{"pokhara", "phewa"},
		Candidates: map[Bundle][]string{
			BundleRain:    {"Watch the rain roll over Phewa Lake from a lakeside café."},
			BundleNight:   {"Walk the Lakeside strip for dinner and live music."},
			BundleClear:   {"Paddle a boat out on Phewa Lake.", "Catch sunrise over the Annapurnas from Sarangkot."},
			BundleDefault: {"Hike up to the World Peace Pagoda."},
		},
	},
	{
		Keywords: []string{"kathmandu", "thamel"},
		Candidates: map[Bundle][]string{
			BundleRain:    {"Shelter in a Thamel bookshop and sip masala tea."},
			BundleNight:   {"See the evening aarti at Pashupatinath."},
			BundleClear:   {"Climb the steps to Swayambhunath for the valley view."},
			BundleDefault: {"Explore the courtyards of Kathmandu Durbar Square."},
		},
	},
	{
		Keywords: []string{"chitwan", "sauraha"},
		Candidates: map[Bundle][]string{
			BundleRain:    {"Visit the Tharu cultural museum in Sauraha."},
			BundleNight:   {"Watch a Tharu stick dance performance."},
			BundleClear:   {"Go on a jungle safari in Chitwan National Park."},
			BundleDefault: {"Take a canoe ride on the Rapti River."},
		},
	},
	{
		Keywords: []string{"lumbini"},
		Candidates: map[Bundle][]string{
			BundleRain:    {"Spend a quiet hour in the Maya Devi Temple."},
			BundleNight:   {"See the Eternal Peace Flame after dark."},
			BundleClear:   {"Cycle between the monasteries of the Lumbini garden."},
			BundleDefault: {"Walk the central canal of the Lumbini garden."},
		},
	},
	{
		Keywords: []string{"everest", "namche", "khumbu"},
		Candidates: map[Bundle][]string{
			BundleRain:    {"Rest and acclimatise at a teahouse today."},
			BundleNight:   {"Bundle up for a night sky over the Khumbu."},
			BundleClear:   {"Hike to the Everest View Hotel for the panorama."},
			BundleDefault: {"Visit the Sherpa museum in Namche Bazaar."},
		},
	},
}
