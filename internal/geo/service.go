package geo

import (
	"context"
	"log/slog"
	"time"

	"github.com/i474232898/travel-context/internal/cascade"
)

// DefaultLocation is used when neither the device nor the IP lookup produce a position.
var DefaultLocation = LocationLabel{
	DisplayName: "Pokhara, Nepal",
	Source:      SourceFallback,
	Coordinates: Coordinates{Latitude: 28.2096, Longitude: 83.9856},
}

// Options tunes the tier timeouts.
type Options struct {
	DeviceTimeout time.Duration
	IPTimeout     time.Duration
	LookupTimeout time.Duration
	Fallback      *LocationLabel
	Logger        *slog.Logger
}

// Service resolves the user's location through device, IP and static tiers.
type Service struct {
	positioner    Positioner
	geocoder      ReverseGeocoder
	ipLocator     IPLocator
	fallback      LocationLabel
	deviceTimeout time.Duration
	ipTimeout     time.Duration
	lookupTimeout time.Duration
	logger        *slog.Logger
}

// NewService creates a Service. Any provider may be nil; its tier is then skipped.
func NewService(positioner Positioner, geocoder ReverseGeocoder, ipLocator IPLocator, opts Options) *Service {
	s := &Service{
		positioner:    positioner,
		geocoder:      geocoder,
		ipLocator:     ipLocator,
		fallback:      DefaultLocation,
		deviceTimeout: opts.DeviceTimeout,
		ipTimeout:     opts.IPTimeout,
		lookupTimeout: opts.LookupTimeout,
		logger:        opts.Logger,
	}
	if s.deviceTimeout <= 0 {
		s.deviceTimeout = 6 * time.Second
	}
	if s.ipTimeout <= 0 {
		s.ipTimeout = 8 * time.Second
	}
	if s.lookupTimeout <= 0 {
		s.lookupTimeout = 5 * time.Second
	}
	if opts.Fallback != nil {
		s.fallback = *opts.Fallback
		s.fallback.Source = SourceFallback
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ResolveLocation resolves using the service's own positioner. It always returns
// a label.
func (s *Service) ResolveLocation(ctx context.Context) LocationLabel {
	return s.ResolveLocationFrom(ctx, s.positioner)
}

// ResolveLocationFrom resolves with a per-request device positioner, e.g. the
// coordinates a browser shared with the request.
func (s *Service) ResolveLocationFrom(ctx context.Context, positioner Positioner) LocationLabel {
	var sources []cascade.Source[LocationLabel]

	if positioner != nil {
		sources = append(sources, cascade.Source[LocationLabel]{
			Name:    string(SourceDevice),
			Timeout: s.deviceTimeout,
			Attempt: func(ctx context.Context) (LocationLabel, error) {
				return s.fromDevice(ctx, positioner)
			},
		})
	}
	if s.ipLocator != nil {
		sources = append(sources, cascade.Source[LocationLabel]{
			Name:    string(SourceIP),
			Timeout: s.ipTimeout,
			Attempt: s.fromIP,
		})
	}

	res, ok := cascade.Resolve(ctx, s.logger, sources)
	if !ok {
		s.logger.Info("geo: using fallback location", "name", s.fallback.DisplayName)
		return s.fallback
	}
	if res.Value.Source == SourceDevice {
		return s.nameDeviceLocation(ctx, res.Value)
	}
	return res.Value
}

func (s *Service) fromDevice(ctx context.Context, positioner Positioner) (LocationLabel, error) {
	coords, err := positioner.CurrentPosition(ctx)
	if err != nil {
		return LocationLabel{}, err
	}
	return LocationLabel{
		DisplayName: coords.String(),
		Source:      SourceDevice,
		Coordinates: coords,
	}, nil
}

// nameDeviceLocation runs the reverse lookup outside the device tier's deadline.
// The tier has already succeeded; a failed lookup only costs the name.
func (s *Service) nameDeviceLocation(ctx context.Context, label LocationLabel) LocationLabel {
	if s.geocoder == nil {
		return label
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	name, err := s.geocoder.ReverseGeocode(lookupCtx, label.Coordinates)
	if err != nil || name == "" {
		s.logger.Info("geo: reverse lookup failed, keeping coordinate label", "coords", label.DisplayName, "error", err)
		return label
	}
	label.DisplayName = name
	return label
}

func (s *Service) fromIP(ctx context.Context) (LocationLabel, error) {
	loc, err := s.ipLocator.LocateByIP(ctx)
	if err != nil {
		return LocationLabel{}, err
	}
	if !loc.Coordinates.Valid() {
		return LocationLabel{}, ErrPositionUnavailable
	}

	name := loc.City
	switch {
	case name == "":
		name = loc.Coordinates.String()
	case loc.Country != "":
		name = name + ", " + loc.Country
	}
	return LocationLabel{
		DisplayName: name,
		Source:      SourceIP,
		Coordinates: loc.Coordinates,
	}, nil
}

// ChainGeocoder tries reverse geocoders in order until one returns a name.
type ChainGeocoder struct {
	names     []string
	geocoders []ReverseGeocoder
	logger    *slog.Logger
}

// NewChainGeocoder creates a chain; names label each geocoder in logs.
func NewChainGeocoder(logger *slog.Logger) *ChainGeocoder {
	return &ChainGeocoder{logger: logger}
}

// Add appends a geocoder to the chain.
func (c *ChainGeocoder) Add(name string, g ReverseGeocoder) *ChainGeocoder {
	c.names = append(c.names, name)
	c.geocoders = append(c.geocoders, g)
	return c
}

// ReverseGeocode implements ReverseGeocoder.
func (c *ChainGeocoder) ReverseGeocode(ctx context.Context, coords Coordinates) (string, error) {
	sources := make([]cascade.Source[string], 0, len(c.geocoders))
	for i, g := range c.geocoders {
		g := g
		sources = append(sources, cascade.Source[string]{
			Name: c.names[i],
			Attempt: func(ctx context.Context) (string, error) {
				name, err := g.ReverseGeocode(ctx, coords)
				if err == nil && name == "" {
					return "", cascade.ErrEmptyResult
				}
				return name, err
			},
		})
	}

	res, ok := cascade.Resolve(ctx, c.logger, sources)
	if !ok {
		return "", ErrNoPlaceName
	}
	return res.Value, nil
}
