package repositories

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlSeed = `
cooperatives:
  - cooperative_id: coop-1
    name: Transportes Norte
    settings:
      window_open: "05:00"
      window_close: "22:00"
    terminals:
      - terminal_id: LIM
        name: Lima
        stands: 4
        lon: -77.03
        lat: -12.05
      - terminal_id: HUA
        name: Huacho
        stands: 2
    drivers:
      - driver_id: d1
        name: Rosa
    buses:
      - bus_id: b1
        plate: ABC-123
        capacity: 40
        status: available
        home_terminal_id: LIM
        driver_id: d1
    unavailable:
      - bus_id: b1
        date: "2026-03-04"
        reason: inspection
`

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestLoadSeedFileYAML(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, "seed.yaml", yamlSeed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seed.Cooperatives) != 1 {
		t.Fatalf("cooperatives = %d, want 1", len(seed.Cooperatives))
	}
	c := seed.Cooperatives[0]
	if len(c.Terminals) != 2 || c.Terminals[0].Lon == nil || c.Terminals[1].Lon != nil {
		t.Fatalf("unexpected terminals %+v", c.Terminals)
	}
	if c.Settings == nil || *c.Settings.WindowOpen != "05:00" {
		t.Fatalf("unexpected settings %+v", c.Settings)
	}
	if c.Buses[0].DriverID != "d1" {
		t.Fatalf("unexpected bus %+v", c.Buses[0])
	}
}

func TestLoadSeedFileJSON(t *testing.T) {
	content := `{"cooperatives":[{"cooperative_id":"coop-2","name":"Sur","terminals":[{"terminal_id":"ICA","name":"Ica","stands":1}],"drivers":[],"buses":[{"bus_id":"b9","plate":"X","capacity":30}]}]}`

	seed, err := LoadSeedFile(writeSeed(t, "seed.json", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seed.Cooperatives[0].Buses[0].Status != "" {
		t.Fatalf("status should stay empty until applied")
	}
}

func TestLoadSeedFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero stands",
			content: `{"cooperatives":[{"cooperative_id":"c","terminals":[{"terminal_id":"T","stands":0}]}]}`,
			wantErr: "stands must be positive",
		},
		{
			name:    "unknown status",
			content: `{"cooperatives":[{"cooperative_id":"c","buses":[{"bus_id":"b","capacity":10,"status":"parked"}]}]}`,
			wantErr: "unknown status",
		},
		{
			name:    "unknown driver",
			content: `{"cooperatives":[{"cooperative_id":"c","buses":[{"bus_id":"b","capacity":10,"driver_id":"ghost"}]}]}`,
			wantErr: "unknown driver",
		},
		{
			name:    "bad date",
			content: `{"cooperatives":[{"cooperative_id":"c","unavailable":[{"bus_id":"b","date":"04/03/2026"}]}]}`,
			wantErr: "parse date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSeedFile(writeSeed(t, "seed.json", tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSeedFileUnsupportedExtension(t *testing.T) {
	if _, err := LoadSeedFile(writeSeed(t, "seed.toml", "")); err == nil {
		t.Fatalf("expected error for .toml seed")
	}
}
