// meter-seeder pushes realistic water-meter payloads at a push service, for
// load testing and demo environments. Numeric fields are sent as strings, the
// way real meters report them.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
)

var (
	serverURL = flag.String("server", "http://localhost:8000", "push service base URL")
	devices   = flag.Int("devices", 3, "number of simulated meters (ignored with -fleet)")
	count     = flag.Int("count", 100, "number of payloads to push")
	interval  = flag.Duration("interval", 100*time.Millisecond, "interval between pushes")
	fleetFile = flag.String("fleet", "", "YAML fleet file describing the meters to simulate")
)

// fleetSpec is the YAML shape of a -fleet file.
type fleetSpec struct {
	Devices []deviceSpec `yaml:"devices"`
}

type deviceSpec struct {
	DeviceNo string `yaml:"deviceNo"`
	IMEI     string `yaml:"imei"`
	Alias    string `yaml:"alias"`
}

// meter holds the evolving state of one simulated water meter.
type meter struct {
	deviceNo  string
	imei      string
	totalFlow float64
	valveOpen bool
}

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	fleet, err := buildFleet()
	if err != nil {
		log.Fatalf("Failed to build fleet: %v", err)
	}

	log.Printf("Starting meter seeder:")
	log.Printf("  Server: %s", *serverURL)
	log.Printf("  Meters: %d", len(fleet))
	log.Printf("  Payload count: %d", *count)
	log.Printf("  Interval: %v", *interval)

	client := &http.Client{Timeout: 10 * time.Second}

	successCount := 0
	failCount := 0

	for i := 0; i < *count; i++ {
		m := fleet[rand.Intn(len(fleet))]
		payload := m.nextPayload()

		if err := push(client, *serverURL, payload); err != nil {
			log.Printf("Push failed [%s]: %v", m.deviceNo, err)
			failCount++
		} else {
			successCount++
			if successCount%50 == 0 {
				log.Printf("Progress: %d/%d payloads pushed", successCount, *count)
			}
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("Seeding complete:")
	log.Printf("  Success: %d payloads", successCount)
	log.Printf("  Failed: %d payloads", failCount)
}

func buildFleet() ([]*meter, error) {
	if *fleetFile != "" {
		data, err := os.ReadFile(*fleetFile)
		if err != nil {
			return nil, fmt.Errorf("read fleet file: %w", err)
		}
		var spec fleetSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("parse fleet file: %w", err)
		}
		if len(spec.Devices) == 0 {
			return nil, fmt.Errorf("fleet file declares no devices")
		}

		fleet := make([]*meter, 0, len(spec.Devices))
		for _, d := range spec.Devices {
			if d.DeviceNo == "" {
				return nil, fmt.Errorf("fleet device without deviceNo")
			}
			fleet = append(fleet, newMeter(d.DeviceNo, d.IMEI))
		}
		return fleet, nil
	}

	if *devices < 1 {
		return nil, fmt.Errorf("need at least one device")
	}
	fleet := make([]*meter, 0, *devices)
	for i := 0; i < *devices; i++ {
		deviceNo := strconv.Itoa(gofakeit.Number(88100000, 88199999))
		imei := gofakeit.Numerify("86##############")
		fleet = append(fleet, newMeter(deviceNo, imei))
	}
	return fleet, nil
}

func newMeter(deviceNo, imei string) *meter {
	return &meter{
		deviceNo:  deviceNo,
		imei:      imei,
		totalFlow: 100 + rand.Float64()*20,
		valveOpen: true,
	}
}

// nextPayload advances the meter state and renders one push payload. All
// values are strings, matching the real device firmware.
func (m *meter) nextPayload() map[string]string {
	// Water draw comes in bursts; most reports show an idle meter.
	var flowRate float64
	if rand.Float64() < 0.3 {
		flowRate = 0.1 + rand.Float64()*0.7
		m.totalFlow += flowRate / 60
	}

	// Occasional valve operation.
	if rand.Float64() < 0.02 {
		m.valveOpen = !m.valveOpen
	}
	valve := "open"
	if !m.valveOpen {
		valve = "closed"
	}

	battery := 3.6 + (rand.Float64()-0.5)*0.1
	signal := -95 + rand.Intn(11)
	temp := 18 + rand.Float64()*8

	payload := map[string]string{
		"deviceNo":          m.deviceNo,
		"imei":              m.imei,
		"totalFlow":         strconv.FormatFloat(m.totalFlow, 'f', 4, 64),
		"instantaneousFlow": strconv.FormatFloat(flowRate, 'f', 4, 64),
		"reverseFlow":       strconv.FormatFloat(0.45+rand.Float64()*0.1, 'f', 2, 64),
		"freezeDateFlow":    strconv.FormatFloat(m.totalFlow-rand.Float64(), 'f', 4, 64),
		"pressure":          strconv.FormatFloat(0.25+rand.Float64()*0.1, 'f', 3, 64),
		"batteryVoltage":    strconv.FormatFloat(battery, 'f', 3, 64),
		"signalValue":       strconv.Itoa(signal),
		"startFrequency":    strconv.Itoa(rand.Intn(5)),
		"temprature":        strconv.FormatFloat(temp, 'f', 2, 64),
		"valveStatu":        valve,
		"updateTime":        strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	return payload
}

func push(client *http.Client, baseURL string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(baseURL+"/api/v1/push", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push failed with status %d", resp.StatusCode)
	}
	return nil
}
