package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type sampleClient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type sampleAppointment struct {
	client  int
	inDays  int
	at      string
	service string
	notes   string
}

var clients = []sampleClient{
	{"Ahmed Mohamed", "0501234567", "ahmed@example.com"},
	{"Fatima Ali", "0502345678", "fatima@example.com"},
	{"Mahmoud Hassan", "0503456789", "mahmoud@example.com"},
	{"Sarah Khaled", "0504567890", "sarah@example.com"},
	{"Ali Abdullah", "0505678901", "ali@example.com"},
}

var appointments = []sampleAppointment{
	{0, 1, "09:00", "Consultation", "first visit"},
	{1, 1, "10:00", "Treatment", ""},
	{2, 2, "14:00", "Cleaning", ""},
	{3, 3, "11:30", "Orthodontics", ""},
	{4, 5, "15:00", "Consultation", "follow-up"},
}

func main() {
	baseURL := flag.String("base-url", getenv("BASE_URL", "http://localhost:8083"), "booking service base url")
	flag.Parse()
	api := strings.TrimRight(*baseURL, "/") + "/api/v1"

	fmt.Println("adding clients...")
	ids := make([]int64, len(clients))
	for i, c := range clients {
		var created struct {
			ID int64 `json:"id"`
		}
		status, err := post(api+"/clients", c, &created)
		if err != nil {
			fmt.Printf("x %s: %v\n", c.Name, err)
			continue
		}
		ids[i] = created.ID
		fmt.Printf("ok %s (status=%d id=%d)\n", c.Name, status, created.ID)
	}

	fmt.Println("adding appointments...")
	today := time.Now().UTC()
	for _, a := range appointments {
		if ids[a.client] == 0 {
			continue
		}
		date := today.AddDate(0, 0, a.inDays).Format("2006-01-02")
		status, err := post(api+"/appointments", map[string]any{
			"client_id": ids[a.client],
			"date":      date,
			"time":      a.at,
			"service":   a.service,
			"notes":     a.notes,
		}, nil)
		if err != nil {
			fmt.Printf("x %s %s %s: %v\n", clients[a.client].Name, date, a.at, err)
			continue
		}
		fmt.Printf("ok %s %s %s (status=%d)\n", clients[a.client].Name, date, a.at, status)
	}
}

func post(url string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
