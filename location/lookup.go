package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alwitt/witness/models"
)

// DefaultIPAPIEndpoint default IP geolocation endpoint
const DefaultIPAPIEndpoint = "http://ip-api.com/json"

// DefaultGeocodingEndpoint default reverse geocoding endpoint
const DefaultGeocodingEndpoint = "https://geocoding-api.open-meteo.com/v1/search"

// DefaultLookupTimeout default timeout on an outbound lookup call
const DefaultLookupTimeout = time.Second * 10

// IPLocator resolves the device's location from its public IP address
type IPLocator interface {
	/*
		LocateByIP resolve the current location from the caller's IP

			@param ctx context.Context - execution context
			@returns the location snapshot
	*/
	LocateByIP(ctx context.Context) (models.LocationSnapshot, error)
}

// ReverseGeocoder maps coordinates to an administrative area
type ReverseGeocoder interface {
	/*
		ReverseGeocode map coordinates to city / state / country

			@param ctx context.Context - execution context
			@param latitude float64 - decimal degrees
			@param longitude float64 - decimal degrees
			@returns the location snapshot
	*/
	ReverseGeocode(
		ctx context.Context, latitude float64, longitude float64,
	) (models.LocationSnapshot, error)
}

// ipAPILocator implements IPLocator against the ip-api.com contract
type ipAPILocator struct {
	endpoint string
	client   *http.Client
}

/*
NewIPAPILocator define an IP locator speaking the ip-api.com contract

	@param endpoint string - service endpoint. Empty for the default.
	@param timeout time.Duration - per-call timeout. Zero for the default.
	@returns locator instance
*/
func NewIPAPILocator(endpoint string, timeout time.Duration) IPLocator {
	if endpoint == "" {
		endpoint = DefaultIPAPIEndpoint
	}
	if timeout == 0 {
		timeout = DefaultLookupTimeout
	}
	return &ipAPILocator{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// ipAPIResponse ip-api.com response payload
type ipAPIResponse struct {
	Status      string  `json:"status"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
}

/*
LocateByIP resolve the current location from the caller's IP

	@param ctx context.Context - execution context
	@returns the location snapshot
*/
func (l *ipAPILocator) LocateByIP(ctx context.Context) (models.LocationSnapshot, error) {
	target := fmt.Sprintf(
		"%s?fields=status,country,countryCode,region,regionName,city,lat,lon,timezone", l.endpoint,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("failed to build IP lookup request [%w]", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("IP lookup call failed [%w]", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return models.LocationSnapshot{}, fmt.Errorf("IP lookup returned status %d", resp.StatusCode)
	}

	var parsed ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("IP lookup response not parsable [%w]", err)
	}

	if parsed.Status != "success" {
		return models.LocationSnapshot{}, fmt.Errorf("IP lookup reported status '%s'", parsed.Status)
	}

	stateCode := parsed.Region
	if !models.IsValidStateCode(stateCode) {
		stateCode = StateCodeFromAdminArea(parsed.RegionName)
	}

	return models.LocationSnapshot{
		Latitude:    parsed.Lat,
		Longitude:   parsed.Lon,
		City:        parsed.City,
		State:       stateCode,
		StateName:   parsed.RegionName,
		Country:     parsed.Country,
		CountryCode: parsed.CountryCode,
		Timezone:    parsed.Timezone,
		Method:      models.LocationMethodIP,
	}, nil
}

// openMeteoGeocoder implements ReverseGeocoder against the Open-Meteo
// geocoding contract
type openMeteoGeocoder struct {
	endpoint string
	client   *http.Client
}

/*
NewOpenMeteoGeocoder define a reverse geocoder speaking the Open-Meteo contract

	@param endpoint string - service endpoint. Empty for the default.
	@param timeout time.Duration - per-call timeout. Zero for the default.
	@returns geocoder instance
*/
func NewOpenMeteoGeocoder(endpoint string, timeout time.Duration) ReverseGeocoder {
	if endpoint == "" {
		endpoint = DefaultGeocodingEndpoint
	}
	if timeout == 0 {
		timeout = DefaultLookupTimeout
	}
	return &openMeteoGeocoder{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// openMeteoResponse Open-Meteo geocoding response payload
type openMeteoResponse struct {
	Results []struct {
		Name        string `json:"name"`
		Admin1      string `json:"admin1"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"results"`
}

/*
ReverseGeocode map coordinates to city / state / country

	@param ctx context.Context - execution context
	@param latitude float64 - decimal degrees
	@param longitude float64 - decimal degrees
	@returns the location snapshot
*/
func (g *openMeteoGeocoder) ReverseGeocode(
	ctx context.Context, latitude float64, longitude float64,
) (models.LocationSnapshot, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, fmt.Sprintf("%s?%s", g.endpoint, params.Encode()), nil,
	)
	if err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("failed to build geocoding request [%w]", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("geocoding call failed [%w]", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return models.LocationSnapshot{}, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var parsed openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("geocoding response not parsable [%w]", err)
	}

	if len(parsed.Results) == 0 {
		return models.LocationSnapshot{}, fmt.Errorf("geocoding returned no results")
	}

	result := parsed.Results[0]
	return models.LocationSnapshot{
		Latitude:    latitude,
		Longitude:   longitude,
		City:        result.Name,
		State:       StateCodeFromAdminArea(result.Admin1),
		StateName:   result.Admin1,
		Country:     result.Country,
		CountryCode: strings.ToUpper(result.CountryCode),
		Method:      models.LocationMethodGeocoding,
	}, nil
}
