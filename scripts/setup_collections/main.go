package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const pocketbaseURL = "http://127.0.0.1:8090"

var httpClient = &http.Client{Timeout: 10 * time.Second}

func main() {
	fmt.Println("🚀 PocketBase Collection Setup Script")
	fmt.Println("=====================================")

	// Load .env file if exists
	godotenv.Load()

	url := getEnv("POCKETBASE_URL", pocketbaseURL)
	token := getEnv("POCKETBASE_TOKEN", "")

	fmt.Printf("Connecting to: %s\n", url)

	if err := checkHealth(url); err != nil {
		fmt.Printf("❌ Cannot connect to PocketBase: %v\n", err)
		fmt.Println("\nPlease check:")
		fmt.Println("1. Is PocketBase running at the specified URL?")
		fmt.Println("2. Check with: curl http://127.0.0.1:8090/api/health")
		os.Exit(1)
	}

	if token == "" {
		fmt.Println("❌ POCKETBASE_TOKEN not set")
		fmt.Println("\nPlease set:")
		fmt.Println("  export POCKETBASE_TOKEN=your_token_here")
		fmt.Println("\nTo get token:")
		fmt.Println("  curl -X POST http://127.0.0.1:8090/api/admins/auth-with-password \\")
		fmt.Println("    -H \"Content-Type: application/json\" \\")
		fmt.Println("    -d '{\"identity\":\"admin@example.com\",\"password\":\"password123\"}'")
		os.Exit(1)
	}

	fmt.Println("✅ Using POCKETBASE_TOKEN from environment")

	if err := testAuth(url, token); err != nil {
		fmt.Printf("❌ Auth test failed: %v\n", err)
		os.Exit(1)
	}

	collections := []struct {
		name   string
		create func(string, string) error
	}{
		{"users", createUsersCollection},
		{"attendance", createAttendanceCollection},
		{"notifications", createNotificationsCollection},
	}

	for _, col := range collections {
		fmt.Printf("\n📦 Creating collection: %s\n", col.name)
		if err := col.create(url, token); err != nil {
			fmt.Printf("   ⚠️  %v\n", err)
		} else {
			fmt.Printf("   ✅ Created successfully\n")
		}
	}

	fmt.Println("\n🎉 Setup complete!")
	fmt.Printf("\nAccess Admin UI: %s/_/\n", url)
}

func testAuth(baseURL, token string) error {
	url := fmt.Sprintf("%s/api/collections", baseURL)
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("Authorization", token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	fmt.Println("✅ Authentication successful")
	return nil
}

func createCollection(baseURL, token, name, colType string, fields []map[string]interface{}, indexes []string) error {
	createURL := fmt.Sprintf("%s/api/collections", baseURL)

	createData := map[string]interface{}{
		"name":   name,
		"type":   colType,
		"fields": fields,
	}
	if len(indexes) > 0 {
		createData["indexes"] = indexes
	}

	jsonData, _ := json.Marshal(createData)
	req, _ := http.NewRequest("POST", createURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// Check if already exists
	if resp.StatusCode == http.StatusBadRequest && (bytes.Contains(body, []byte("already exists")) || bytes.Contains(body, []byte("must be unique"))) {
		fmt.Printf("   Collection exists, attempting to update fields...\n")
		return updateCollectionFields(baseURL, token, name, fields)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create failed: %s - %s", resp.Status, string(body))
	}

	fmt.Printf("   Created with %d fields\n", len(fields))
	return nil
}

func updateCollectionFields(baseURL, token, name string, fields []map[string]interface{}) error {
	getURL := fmt.Sprintf("%s/api/collections/%s", baseURL, name)
	req, _ := http.NewRequest("GET", getURL, nil)
	req.Header.Set("Authorization", token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get collection: %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var existing struct {
		ID     string                   `json:"id"`
		Fields []map[string]interface{} `json:"fields"`
	}

	if err := json.Unmarshal(body, &existing); err != nil {
		return fmt.Errorf("failed to parse collection: %v", err)
	}

	existingFieldNames := make(map[string]bool)
	for _, f := range existing.Fields {
		if name, ok := f["name"].(string); ok {
			existingFieldNames[name] = true
		}
	}

	var newFields []map[string]interface{}
	for _, field := range fields {
		if name, ok := field["name"].(string); ok {
			if !existingFieldNames[name] {
				newFields = append(newFields, field)
			}
		}
	}

	if len(newFields) == 0 {
		fmt.Printf("   All fields already exist\n")
		return nil
	}

	updateURL := fmt.Sprintf("%s/api/collections/%s", baseURL, name)
	updateData := map[string]interface{}{
		"fields": append(existing.Fields, newFields...),
	}

	jsonData, _ := json.Marshal(updateData)
	req, _ = http.NewRequest("PATCH", updateURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err = httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update: %v", err)
	}

	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update failed: %s - %s", resp.Status, string(body))
	}

	fmt.Printf("   Added %d new fields\n", len(newFields))
	return nil
}

func createTextField(name string, required bool) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"type":        "text",
		"required":    required,
		"hidden":      false,
		"presentable": false,
		"system":      false,
		"options": map[string]interface{}{
			"min": 0,
			"max": 0,
		},
	}
}

func createTextFieldWithPattern(name string, required bool, pattern string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"type":        "text",
		"required":    required,
		"hidden":      false,
		"presentable": false,
		"system":      false,
		"options": map[string]interface{}{
			"min":     0,
			"max":     0,
			"pattern": pattern,
		},
	}
}

func createNumberField(name string, required bool) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"type":        "number",
		"required":    required,
		"hidden":      false,
		"presentable": false,
		"system":      false,
		"options": map[string]interface{}{
			"min":       nil,
			"max":       nil,
			"noDecimal": true,
		},
	}
}

func createDateField(name string, required bool) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"type":        "date",
		"required":    required,
		"hidden":      false,
		"presentable": false,
		"system":      false,
		"options": map[string]interface{}{
			"min": "",
			"max": "",
		},
	}
}

func createBoolField(name string, required bool) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"type":        "bool",
		"required":    required,
		"hidden":      false,
		"presentable": false,
		"system":      false,
		"options":     map[string]interface{}{},
	}
}

func createUsersCollection(baseURL, token string) error {
	fields := []map[string]interface{}{
		createTextField("full_name", true),
		createTextField("role", true),
		createTextField("employee_id", false),
		createTextField("home_address", false),
		createTextField("contact", false),
		createTextField("gender", false),
		createTextField("assigned_area", false),
		createBoolField("is_active", false),
		createNumberField("telegram_chat_id", false),
		createDateField("last_notification_check", false),
	}
	// Auth collection: PocketBase adds email/password fields itself.
	return createCollection(baseURL, token, "users", "auth", fields, nil)
}

func createAttendanceCollection(baseURL, token string) error {
	fields := []map[string]interface{}{
		createTextFieldWithPattern("record_key", true, "^[^_]+_\\d{4}-\\d{2}-\\d{2}$"),
		createTextField("user_id", true),
		createTextField("user_name", true),
		createTextField("status", true),
		createTextFieldWithPattern("date", true, "^\\d{4}-\\d{2}-\\d{2}$"),
		createTextField("check_in_time", true),
		createDateField("timestamp", true),
		createDateField("updated_at", false),
		createTextField("updated_by", false),
	}
	// The unique index is what makes duplicate check-ins fail atomically.
	indexes := []string{
		"CREATE UNIQUE INDEX idx_attendance_record_key ON attendance (record_key)",
	}
	return createCollection(baseURL, token, "attendance", "base", fields, indexes)
}

func createNotificationsCollection(baseURL, token string) error {
	fields := []map[string]interface{}{
		createTextField("recipient_id", true),
		createTextField("type", true),
		createTextField("title", true),
		createTextField("message", true),
		createTextField("from_name", false),
		createTextField("from_id", false),
		createBoolField("is_read", false),
	}
	return createCollection(baseURL, token, "notifications", "base", fields, nil)
}

func checkHealth(baseURL string) error {
	resp, err := httpClient.Get(baseURL + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %s", resp.Status)
	}

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("✅ PocketBase is running: %s\n", string(body))
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
