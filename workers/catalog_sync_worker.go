package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"reward-economy-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogSyncClient mirrors the task catalog from the content service. Task
// authoring lives there; this worker only keeps our read copy fresh.
type CatalogSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewCatalogSyncClient(db *gorm.DB) *CatalogSyncClient {
	baseURL := os.Getenv("CONTENT_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("CONTENT_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("REWARD_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("REWARD_SERVICE_TOKEN environment variable is required for catalog sync")
	}

	return &CatalogSyncClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// remoteTask is the content service's task shape.
type remoteTask struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Reward int64  `json:"reward"`
	Active bool   `json:"active"`
}

// GetChangedTasks fetches tasks modified since the given time.
func (c *CatalogSyncClient) GetChangedTasks(ctx context.Context, since time.Time) ([]remoteTask, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/tasks", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call content service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("content service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Tasks []remoteTask `json:"tasks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode content service response: %w", err)
	}

	return response.Tasks, nil
}

// SyncOnce fetches one batch of catalog changes and mirrors them locally.
// Returns the number of upserted tasks.
func (c *CatalogSyncClient) SyncOnce(ctx context.Context, since time.Time) (int, error) {
	remote, err := c.GetChangedTasks(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(remote) == 0 {
		return 0, nil
	}

	tasks := make([]models.TaskDefinition, len(remote))
	for i, r := range remote {
		tasks[i] = models.TaskDefinition{
			ID:     uuid.NewString(),
			Slug:   slug.Make(r.Title),
			Title:  r.Title,
			Link:   r.Link,
			Reward: r.Reward,
			Active: r.Active,
		}
	}

	// Bulk upsert keyed on slug: existing tasks keep their id (and with it
	// every TaskCompletion pointing at them).
	if err := c.DB.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title",
				"link",
				"reward",
				"active",
				"updated_at",
			}),
		},
	).Create(&tasks).Error; err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// PollCatalog keeps the local task mirror fresh. On failure the sync window
// is not advanced, so the same batch is retried next tick.
func PollCatalog(ctx context.Context, client *CatalogSyncClient, pollInterval time.Duration) {
	log.Println("Starting task catalog polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Catalog polling stopped.")
			return
		case <-ticker.C:
			logTime := time.Now().UTC()

			count, err := client.SyncOnce(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Catalog sync failed: %v", err)
				continue
			}

			lastSyncTime = logTime
			if count > 0 {
				log.Printf("✅ Upserted %d task(s) into the catalog mirror.", count)
			}
		}
	}
}
