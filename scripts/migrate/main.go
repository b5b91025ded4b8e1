package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultPocketBaseURL = "http://127.0.0.1:8090"
)

type SchemaField struct {
	Name     string                 `json:"name"`
	Type     string                 `json:"type"`
	Required bool                   `json:"required"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type Collection struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Fields []SchemaField `json:"fields"`
}

type Migrator struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func loadEnv() error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}

	// Get project root (scripts directory -> project root)
	projectRoot := filepath.Dir(filepath.Dir(execPath))
	envPath := filepath.Join(projectRoot, ".env")

	// Try current directory if executable path doesn't work
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	file, err := os.Open(envPath)
	if err != nil {
		log.Printf("⚠️  Warning: Could not open .env file: %v", err)
		return nil // Don't fail if .env doesn't exist
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	log.Println("📝 Loaded .env file")
	return scanner.Err()
}

func NewMigrator() *Migrator {
	loadEnv()

	baseURL := os.Getenv("POCKETBASE_URL")
	if baseURL == "" {
		baseURL = defaultPocketBaseURL
	}

	token := os.Getenv("POCKETBASE_TOKEN")
	if token == "" {
		log.Fatal("❌ Error: POCKETBASE_TOKEN not found in environment variables")
	}

	return &Migrator{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (m *Migrator) checkConnection() error {
	log.Println("🔍 Checking PocketBase connection...")

	resp, err := m.httpClient.Get(m.baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("cannot connect to PocketBase: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PocketBase health check failed: %s", resp.Status)
	}

	log.Println("✅ PocketBase is running")
	return nil
}

func (m *Migrator) getCollection(name string) (*Collection, error) {
	log.Printf("📖 Fetching %s collection...\n", name)

	req, _ := http.NewRequest("GET", m.baseURL+"/api/collections/"+name, nil)
	req.Header.Set("Authorization", m.token)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get collection: %s - %s", resp.Status, string(body))
	}

	var collection Collection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}

	log.Println("✅ Collection found")
	return &collection, nil
}

func (m *Migrator) hasField(collection *Collection, fieldName string) bool {
	for _, field := range collection.Fields {
		if field.Name == fieldName {
			return true
		}
	}
	return false
}

func (m *Migrator) addNotificationTrackingFields(collection *Collection) error {
	log.Println("🔄 Adding new fields to users...")
	log.Println("   • last_notification_check (Date)")
	log.Println("   • telegram_chat_id (Number)")

	if m.hasField(collection, "last_notification_check") {
		log.Println("⚠️  Field 'last_notification_check' already exists. Skipping...")
	} else {
		collection.Fields = append(collection.Fields, SchemaField{
			Name:     "last_notification_check",
			Type:     "date",
			Required: false,
			Options:  map[string]interface{}{},
		})
	}

	if m.hasField(collection, "telegram_chat_id") {
		log.Println("⚠️  Field 'telegram_chat_id' already exists. Skipping...")
	} else {
		collection.Fields = append(collection.Fields, SchemaField{
			Name:     "telegram_chat_id",
			Type:     "number",
			Required: false,
			Options: map[string]interface{}{
				"noDecimal": true,
			},
		})
	}

	jsonData, _ := json.Marshal(collection)
	req, _ := http.NewRequest("PATCH", m.baseURL+"/api/collections/"+collection.ID, bytes.NewBuffer(jsonData))
	req.Header.Set("Authorization", m.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to update collection: %s - %s", resp.Status, string(body))
	}

	log.Println("✅ Migration completed successfully!")
	return nil
}

func (m *Migrator) verify() error {
	log.Println("\n🧪 Verifying migration...")

	collection, err := m.getCollection("users")
	if err != nil {
		return err
	}

	if !m.hasField(collection, "last_notification_check") {
		return fmt.Errorf("field 'last_notification_check' not found after migration")
	}
	log.Println("✅ Field 'last_notification_check' verified")

	if !m.hasField(collection, "telegram_chat_id") {
		return fmt.Errorf("field 'telegram_chat_id' not found after migration")
	}
	log.Println("✅ Field 'telegram_chat_id' verified")

	return nil
}

func (m *Migrator) Run() error {
	log.Println("🔧 PocketBase Migration: Add Notification Tracking Fields")
	log.Println("==================================================")
	log.Printf("📍 PocketBase URL: %s\n\n", m.baseURL)

	if err := m.checkConnection(); err != nil {
		return err
	}

	collection, err := m.getCollection("users")
	if err != nil {
		return err
	}

	if err := m.addNotificationTrackingFields(collection); err != nil {
		return err
	}

	if err := m.verify(); err != nil {
		return err
	}

	log.Println("\n🎉 Migration verified successfully!")
	log.Println("\n📋 Next Steps:")
	log.Println("   1. Restart the API server")
	log.Println("   2. Mark notifications as checked from an admin account")
	log.Println("   3. Verify unread counts reset")

	return nil
}

func main() {
	migrator := NewMigrator()

	if err := migrator.Run(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
}
