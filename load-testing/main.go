package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/richd0tcom/powrmet/internal/broker"
)

type LoadTestConfig struct {
	TargetURL      string
	Devices        int
	Duration       time.Duration
	UplinkInterval time.Duration
	// Mode selects the path samples take: http, kafka or mqtt.
	Mode string
}

// uplink is what a power monitor node sends.
type uplink struct {
	DeviceID  string  `json:"deviceId"`
	Timestamp int64   `json:"timestamp"`
	Voltage   float64 `json:"voltage"`
	Current   float64 `json:"current"`
	Power     float64 `json:"power"`
	Energy    float64 `json:"energy"`
	RSSI      int     `json:"rssi"`
}

// device simulates one node with a cumulative energy counter that is
// occasionally reset, as happens when a node reboots.
type device struct {
	id     string
	boot   time.Time
	energy float64
	rng    *rand.Rand
}

func newDevice(n int) *device {
	return &device{
		id:   fmt.Sprintf("node-%03d", n),
		boot: time.Now(),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano() + int64(n))),
	}
}

func (d *device) next(interval time.Duration) uplink {
	voltage := 220 + d.rng.Float64()*20
	current := d.rng.Float64() * 10
	power := voltage * current

	if d.rng.Intn(500) == 0 {
		d.energy = 0
		d.boot = time.Now()
	}
	d.energy += power * interval.Hours()

	return uplink{
		DeviceID:  d.id,
		Timestamp: time.Since(d.boot).Milliseconds(),
		Voltage:   voltage,
		Current:   current,
		Power:     power,
		Energy:    d.energy,
		RSSI:      -40 - d.rng.Intn(80),
	}
}

type TestResults struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalLatency    time.Duration
	MinLatency      time.Duration
	MaxLatency      time.Duration
	Errors          []string
	mu              sync.RWMutex
}

func (tr *TestResults) AddResult(success bool, latency time.Duration, err error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.TotalRequests++
	tr.TotalLatency += latency

	if tr.MinLatency == 0 || latency < tr.MinLatency {
		tr.MinLatency = latency
	}
	if latency > tr.MaxLatency {
		tr.MaxLatency = latency
	}

	if success {
		tr.SuccessRequests++
	} else {
		tr.FailedRequests++
		if err != nil {
			tr.Errors = append(tr.Errors, err.Error())
		}
	}
}

func (tr *TestResults) GetStats() (float64, float64, time.Duration) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	if tr.TotalRequests == 0 {
		return 0, 0, 0
	}
	successRate := float64(tr.SuccessRequests) / float64(tr.TotalRequests) * 100
	avgLatency := tr.TotalLatency / time.Duration(tr.TotalRequests)

	return successRate, float64(tr.TotalRequests), avgLatency
}

// sender delivers one uplink over the configured path.
type sender func(ctx context.Context, body []byte) error

func httpSender(client *http.Client, baseURL string) sender {
	return func(ctx context.Context, body []byte) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/lora", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return nil
	}
}

func queueSender(mq broker.MessageQueue) sender {
	return func(ctx context.Context, body []byte) error {
		return mq.Publish(ctx, body)
	}
}

func newQueue(mode string) (broker.MessageQueue, error) {
	switch mode {
	case "kafka":
		return broker.NewKafkaQueue(
			getEnv("KAFKA_BROKERS", "localhost:9092"),
			getEnv("KAFKA_TOPIC", "lora-samples"),
			"powrmet-loadtest",
		)
	case "mqtt":
		return broker.NewMQTTQueue(broker.MQTTOptions{
			Broker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
			ClientID: "powrmet-loadtest",
			Topic:    getEnv("MQTT_TOPIC", "lora/+/uplink"),
		})
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

func runDevice(ctx context.Context, d *device, config LoadTestConfig, send sender, results *TestResults, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(config.UplinkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			body, err := json.Marshal(d.next(config.UplinkInterval))
			if err != nil {
				results.AddResult(false, 0, err)
				continue
			}

			start := time.Now()
			err = send(ctx, body)
			if ctx.Err() != nil {
				return
			}
			results.AddResult(err == nil, time.Since(start), err)
		}
	}
}

func printProgress(ctx context.Context, results *TestResults, duration time.Duration) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			remaining := duration - elapsed

			successRate, totalReqs, avgLatency := results.GetStats()

			fmt.Printf("\n=== Progress Update ===\n")
			fmt.Printf("Elapsed: %v, Remaining: %v\n", elapsed.Round(time.Second), remaining.Round(time.Second))
			fmt.Printf("Uplinks sent: %.0f\n", totalReqs)
			fmt.Printf("Success Rate: %.2f%%\n", successRate)
			fmt.Printf("Average Latency: %v\n", avgLatency.Round(time.Millisecond))

			if remaining <= 0 {
				return
			}
		}
	}
}

func checkQueries(client *http.Client, baseURL, deviceID string) error {
	fmt.Printf("\n=== Querying %s ===\n", deviceID)

	q := url.Values{"deviceId": {deviceID}, "hours": {"1"}}

	start := time.Now()
	resp, err := client.Get(baseURL + "/lora/history?" + q.Encode())
	if err != nil {
		return fmt.Errorf("history request failed: %w", err)
	}
	var history []map[string]any
	err = json.NewDecoder(resp.Body).Decode(&history)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to decode history: %w", err)
	}
	fmt.Printf("History: %d samples in %v\n", len(history), time.Since(start).Round(time.Millisecond))

	start = time.Now()
	resp, err = client.Get(baseURL + "/lora/summary?" + q.Encode())
	if err != nil {
		return fmt.Errorf("summary request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("summary endpoint returned HTTP %d", resp.StatusCode)
	}
	var summary map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return fmt.Errorf("failed to decode summary: %w", err)
	}
	fmt.Printf("Summary in %v: energy=%v Wh, points=%v\n",
		time.Since(start).Round(time.Millisecond), summary["totalEnergyWh"], summary["dataPoints"])

	return nil
}

func main() {
	config := LoadTestConfig{
		TargetURL:      getEnv("TARGET_URL", "http://localhost:3000"),
		Devices:        getEnvInt("DEVICES", 20),
		Duration:       getEnvDuration("DURATION", "60s"),
		UplinkInterval: getEnvDuration("UPLINK_INTERVAL", "1s"),
		Mode:           getEnv("MODE", "http"),
	}

	fmt.Printf("=== Load Test Configuration ===\n")
	fmt.Printf("Target URL: %s\n", config.TargetURL)
	fmt.Printf("Mode: %s\n", config.Mode)
	fmt.Printf("Devices: %d\n", config.Devices)
	fmt.Printf("Duration: %v\n", config.Duration)
	fmt.Printf("Uplink interval: %v\n", config.UplinkInterval)

	fmt.Println("\nWaiting for service to be ready...")
	client := &http.Client{Timeout: 5 * time.Second}

	for i := 0; i < 30; i++ {
		resp, err := client.Get(config.TargetURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			fmt.Println("Service is ready!")
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		fmt.Printf("Waiting for service... (%d/30)\n", i+1)
		time.Sleep(2 * time.Second)
	}

	var send sender
	if config.Mode == "http" {
		send = httpSender(&http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		}, config.TargetURL)
	} else {
		mq, err := newQueue(config.Mode)
		if err != nil {
			log.Fatalf("Failed to connect broker: %v", err)
		}
		defer mq.Close()
		send = queueSender(mq)
	}

	results := &TestResults{}

	ctx, cancel := context.WithTimeout(context.Background(), config.Duration)
	defer cancel()

	go printProgress(ctx, results, config.Duration)

	var wg sync.WaitGroup
	devices := make([]*device, config.Devices)
	fmt.Printf("\nStarting %d devices...\n", config.Devices)

	for i := range devices {
		devices[i] = newDevice(i + 1)
		wg.Add(1)
		go runDevice(ctx, devices[i], config, send, results, &wg)
	}

	wg.Wait()

	fmt.Printf("\n=== Final Results ===\n")
	successRate, totalReqs, avgLatency := results.GetStats()

	fmt.Printf("Uplinks sent: %.0f\n", totalReqs)
	fmt.Printf("Successful: %d\n", results.SuccessRequests)
	fmt.Printf("Failed: %d\n", results.FailedRequests)
	fmt.Printf("Success Rate: %.2f%%\n", successRate)
	fmt.Printf("Average Latency: %v\n", avgLatency.Round(time.Millisecond))
	fmt.Printf("Min Latency: %v\n", results.MinLatency.Round(time.Millisecond))
	fmt.Printf("Max Latency: %v\n", results.MaxLatency.Round(time.Millisecond))
	fmt.Printf("Throughput: %.2f uplinks/second\n", totalReqs/config.Duration.Seconds())

	if len(results.Errors) > 0 {
		fmt.Printf("\n=== Errors (showing first 10) ===\n")
		for i, err := range results.Errors {
			if i >= 10 {
				fmt.Printf("... and %d more errors\n", len(results.Errors)-10)
				break
			}
			fmt.Printf("- %s\n", err)
		}
	}

	if len(devices) > 0 {
		// broker ingestion flushes on a timer
		if config.Mode != "http" {
			time.Sleep(6 * time.Second)
		}
		if err := checkQueries(&http.Client{Timeout: 30 * time.Second}, config.TargetURL, devices[0].id); err != nil {
			fmt.Printf("Query check failed: %v\n", err)
		}
	}

	fmt.Println("\nLoad test completed!")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	if parsed, err := time.ParseDuration(defaultValue); err == nil {
		return parsed
	}
	return time.Minute
}
