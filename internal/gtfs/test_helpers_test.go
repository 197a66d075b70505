package gtfs

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// londonFixture is a small GTFS bundle: two tube lines sharing Oxford Circus,
// a tube line without trips, a bus route, and a station at (0,0).
var londonFixture = map[string]string{
	"agency.txt": `agency_id,agency_name,agency_url,agency_timezone
tfl,Transport for London,https://tfl.gov.uk,Europe/London
`,
	"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type
victoria,tfl,VIC,Victoria,1
central,tfl,CEN,Central,1
bus-8,tfl,8,Bus 8,3
waterloo-city,tfl,W&C,Waterloo & City,1
`,
	"stops.txt": `stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station
OXC,Oxford Circus,51.515224,-0.141903,1,
OXC-V,Oxford Circus Victoria Platform,51.5152,-0.1419,0,OXC
OXC-C,Oxford Circus Central Platform,51.5153,-0.1420,0,OXC
BXN,Brixton,51.462618,-0.114888,1,
BXN-1,Brixton Platform 1,51.4626,-0.1149,0,BXN
BNK,Bank,51.513347,-0.088985,1,
BNK-C,Bank Central Platform,51.5133,-0.0890,0,BNK
GHOST,Ghost Station,0,0,1,
GHOST-V,Ghost Platform,0,0,0,GHOST
BUS-OXC,Oxford Circus bus stop,51.5155,-0.1415,0,
`,
	"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
weekday,1,1,1,1,1,0,0,20240101,20241231
weekend,0,0,0,0,0,1,1,20240101,20240630
`,
	"trips.txt": `route_id,service_id,trip_id
victoria,weekday,vic-1
victoria,weekend,vic-2
central,weekday,cen-1
bus-8,weekday,bus-1
`,
	"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence
vic-1,08:00:00,08:00:30,BXN-1,1
vic-1,08:10:00,08:10:30,OXC-V,2
vic-1,08:15:00,08:15:30,GHOST-V,3
vic-2,09:00:00,09:00:30,OXC-V,1
vic-2,09:10:00,09:10:30,BXN-1,2
cen-1,08:00:00,08:00:30,OXC-C,1
cen-1,08:06:00,08:06:30,BNK-C,2
bus-1,08:00:00,08:00:30,BUS-OXC,1
`,
}

// buildBundle zips files into an in-memory GTFS bundle.
func buildBundle(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s to bundle: %v", name, err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close bundle: %v", err)
	}
	return buf.Bytes()
}

func writeBundle(t *testing.T, path string, data []byte, modTime time.Time) {
	t.Helper()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write bundle %s: %v", path, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("Failed to set mod time on %s: %v", path, err)
	}
}

func writeLondonBundle(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "london.zip")
	writeBundle(t, path, buildBundle(t, londonFixture), time.Now())
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
