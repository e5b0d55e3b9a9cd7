// Geolocation and cloud-metadata lookups, best effort with sentinels
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"carbontrace/internal/logging"
)

// Geo holds the machine's approximate location. Lat/lon are carried as
// strings so the "N/A" sentinel survives into the record.
type Geo struct {
	CountryName    string
	CountryISOCode string
	Region         string
	Latitude       string
	Longitude      string
}

// Cloud identifies the hosting cloud, if any.
type Cloud struct {
	OnCloud  bool
	Provider string
	Region   string
}

// Detector performs the HTTP and filesystem checks. Endpoints and marker
// paths are fields so tests can point them at httptest servers.
type Detector struct {
	Client             *http.Client
	GeoEndpoint        string
	AWSRegionEndpoint  string
	GCPZoneEndpoint    string
	HypervisorUUIDPath string
	GCPMarkerPath      string
}

// NewDetector returns a detector with the conventional endpoints and a
// bounded per-request timeout.
func NewDetector(geoEndpoint string) *Detector {
	if geoEndpoint == "" {
		geoEndpoint = "http://ip-api.com/json/"
	}
	return &Detector{
		Client:             &http.Client{Timeout: 3 * time.Second},
		GeoEndpoint:        geoEndpoint,
		AWSRegionEndpoint:  "http://169.254.169.254/latest/meta-data/placement/region",
		GCPZoneEndpoint:    "http://metadata.google.internal/computeMetadata/v1/instance/zone",
		HypervisorUUIDPath: "/sys/hypervisor/uuid",
		GCPMarkerPath:      "/etc/google_system",
	}
}

// Geolocate fetches the approximate location of the machine. Any failure
// returns the sentinel-filled zero location.
func (d *Detector) Geolocate(ctx context.Context) Geo {
	log := logging.FromContext(ctx)
	unknown := Geo{
		CountryName:    "Unknown",
		CountryISOCode: "N/A",
		Region:         "N/A",
		Latitude:       "N/A",
		Longitude:      "N/A",
	}

	body, err := d.get(ctx, d.GeoEndpoint, nil)
	if err != nil {
		log.Warn("could not fetch location data", "err", err)
		return unknown
	}
	var payload struct {
		Country     string  `json:"country"`
		CountryCode string  `json:"countryCode"`
		RegionName  string  `json:"regionName"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("could not parse location data", "err", err)
		return unknown
	}
	return Geo{
		CountryName:    payload.Country,
		CountryISOCode: payload.CountryCode,
		Region:         payload.RegionName,
		Latitude:       fmt.Sprintf("%g", payload.Lat),
		Longitude:      fmt.Sprintf("%g", payload.Lon),
	}
}

// DetectCloud checks for AWS, Azure, and GCP in that order. Off-cloud
// hosts return the "N"/"N/A" outcome.
func (d *Detector) DetectCloud(ctx context.Context) Cloud {
	log := logging.FromContext(ctx)
	none := Cloud{Provider: "N", Region: "N/A"}

	if uuid, err := os.ReadFile(d.HypervisorUUIDPath); err == nil && strings.Contains(strings.ToLower(string(uuid)), "ec2") {
		region := "N/A"
		if body, err := d.get(ctx, d.AWSRegionEndpoint, nil); err == nil {
			region = strings.TrimSpace(string(body))
		} else {
			log.Warn("could not read AWS region metadata", "err", err)
		}
		return Cloud{OnCloud: true, Provider: "aws", Region: region}
	}

	if h, err := host.InfoWithContext(ctx); err == nil && strings.Contains(h.KernelVersion, "Microsoft") {
		// Azure does not expose the region through a local endpoint.
		return Cloud{OnCloud: true, Provider: "azure", Region: "N/A"}
	}

	if _, err := os.Stat(d.GCPMarkerPath); err == nil {
		region := "N/A"
		if body, err := d.get(ctx, d.GCPZoneEndpoint, map[string]string{"Metadata-Flavor": "Google"}); err == nil {
			zone := strings.TrimSpace(string(body))
			if idx := strings.LastIndex(zone, "/"); idx >= 0 {
				zone = zone[idx+1:]
			}
			region = zone
		} else {
			log.Warn("could not read GCP zone metadata", "err", err)
		}
		return Cloud{OnCloud: true, Provider: "gcp", Region: region}
	}

	return none
}

func (d *Detector) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<16))
}
