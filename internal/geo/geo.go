package geo

import (
	"math"
	"strings"

	"go.uber.org/zap"
)

// earthRadiusMiles is the mean earth radius in statute miles.
const earthRadiusMiles = 3959.0

// Coordinate is a lat/lon pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// defaultCoordinate is used when a location is not in the table. It is the
// approximate geographic center of the contiguous US, which keeps distance
// results plausible instead of failing the whole quote. See Lookup for the
// substitution signal.
var defaultCoordinate = Coordinate{Lat: 39.8283, Lon: -98.5795}

// Resolver resolves location identifiers to coordinates and computes
// great-circle distances between them. It never fails: unknown locations
// substitute a default coordinate.
type Resolver struct {
	coords map[string]Coordinate
	log    *zap.SugaredLogger
}

// NewResolver returns a Resolver over the built-in coordinate table.
func NewResolver(log *zap.SugaredLogger) *Resolver {
	return &Resolver{coords: builtinCoordinates, log: log}
}

// NewResolverWithTable returns a Resolver over a caller-supplied table.
func NewResolverWithTable(table map[string]Coordinate, log *zap.SugaredLogger) *Resolver {
	coords := make(map[string]Coordinate, len(table))
	for k, v := range table {
		coords[normalize(k)] = v
	}
	return &Resolver{coords: coords, log: log}
}

// Lookup resolves a location identifier. The bool reports whether the
// location was found; when false the default coordinate is returned.
func (r *Resolver) Lookup(loc string) (Coordinate, bool) {
	c, ok := r.coords[normalize(loc)]
	if !ok {
		return defaultCoordinate, false
	}
	return c, true
}

// Distance returns the great-circle distance between two locations in
// statute miles, rounded to the nearest mile. Identical locations yield 0.
func (r *Resolver) Distance(from, to string) int {
	a, okFrom := r.Lookup(from)
	b, okTo := r.Lookup(to)
	if r.log != nil {
		if !okFrom {
			r.log.Warnw("unknown origin, using default coordinate", "location", from)
		}
		if !okTo {
			r.log.Warnw("unknown destination, using default coordinate", "location", to)
		}
	}
	return int(math.Round(haversine(a, b)))
}

// haversine computes the great-circle distance in miles.
func haversine(p, q Coordinate) float64 {
	lat1 := radians(p.Lat)
	lat2 := radians(q.Lat)
	dLat := radians(q.Lat - p.Lat)
	dLon := radians(q.Lon - p.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func normalize(loc string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(loc))), " ")
}

// builtinCoordinates covers the major freight hubs the portal quotes between.
var builtinCoordinates = map[string]Coordinate{
	"new york, ny":       {40.7128, -74.0060},
	"los angeles, ca":    {34.0522, -118.2437},
	"chicago, il":        {41.8781, -87.6298},
	"houston, tx":        {29.7604, -95.3698},
	"phoenix, az":        {33.4484, -112.0740},
	"philadelphia, pa":   {39.9526, -75.1652},
	"san antonio, tx":    {29.4241, -98.4936},
	"san diego, ca":      {32.7157, -117.1611},
	"dallas, tx":         {32.7767, -96.7970},
	"atlanta, ga":        {33.7490, -84.3880},
	"miami, fl":          {25.7617, -80.1918},
	"seattle, wa":        {47.6062, -122.3321},
	"denver, co":         {39.7392, -104.9903},
	"boston, ma":         {42.3601, -71.0589},
	"detroit, mi":        {42.3314, -83.0458},
	"nashville, tn":      {36.1627, -86.7816},
	"memphis, tn":        {35.1495, -90.0490},
	"portland, or":       {45.5152, -122.6784},
	"las vegas, nv":      {36.1699, -115.1398},
	"louisville, ky":     {38.2527, -85.7585},
	"baltimore, md":      {39.2904, -76.6122},
	"kansas city, mo":    {39.0997, -94.5786},
	"columbus, oh":       {39.9612, -82.9988},
	"indianapolis, in":   {39.7684, -86.1581},
	"charlotte, nc":      {35.2271, -80.8431},
	"salt lake city, ut": {40.7608, -111.8910},
	"minneapolis, mn":    {44.9778, -93.2650},
	"st louis, mo":       {38.6270, -90.1994},
	"new orleans, la":    {29.9511, -90.0715},
	"el paso, tx":        {31.7619, -106.4850},
	"laredo, tx":         {27.5036, -99.5076},
	"toronto, on":        {43.6532, -79.3832},
	"montreal, qc":       {45.5017, -73.5673},
	"vancouver, bc":      {49.2827, -123.1207},
	"monterrey, nl":      {25.6866, -100.3161},
	"mexico city, cdmx":  {19.4326, -99.1332},
}
