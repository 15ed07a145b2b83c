package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres starts a throwaway Postgres container. Tests are skipped when
// Docker is not reachable, e.g. on CI runners without a Docker socket.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=events_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})
	_ = resource.Expire(180)

	var db *gorm.DB
	err = pool.Retry(func() error {
		dsn := fmt.Sprintf(
			"host=localhost port=%s user=postgres password=secret dbname=events_test sslmode=disable",
			resource.GetPort("5432/tcp"),
		)

		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if openErr != nil {
			return openErr
		}

		sqlDB, openErr := db.DB()
		if openErr != nil {
			return openErr
		}

		return sqlDB.Ping()
	})
	require.NoError(t, err)

	require.NoError(t, InitTables(db))

	return db
}

func insertTestEvent(t *testing.T, d *EventDAO) Event {
	t.Helper()

	event, err := d.InsertEvent(context.Background(), Event{
		Title:       "Community Budget Townhall",
		Location:    "City Hall",
		Capacity:    2,
		Status:      "published",
		OrganizerID: 1,
		StartDate:   time.Now().Add(24 * time.Hour),
		EndDate:     time.Now().Add(26 * time.Hour),
	})
	require.NoError(t, err)

	return event
}

func TestEventDAO(t *testing.T) {
	db := setupPostgres(t)
	d := NewEventDAO(db)
	ctx := context.Background()

	event := insertTestEvent(t, d)
	require.NotZero(t, event.ID)

	t.Run("find and list events", func(t *testing.T) {
		found, err := d.FindEventByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, event.Title, found.Title)

		_, err = d.FindEventByID(ctx, 9999)
		require.ErrorIs(t, err, ErrEventNotFound)

		published, err := d.ListEvents(ctx, []string{"published"})
		require.NoError(t, err)
		assert.Len(t, published, 1)

		drafts, err := d.ListEvents(ctx, []string{"draft"})
		require.NoError(t, err)
		assert.Empty(t, drafts)
	})

	t.Run("registration number uniqueness", func(t *testing.T) {
		reg := EventRegistration{
			EventID:            event.ID,
			UserID:             1,
			UserName:           "ana",
			UserEmail:          "ana@example.com",
			RegistrationNumber: "EVT1-UNIQ-TEST",
			Status:             "registered",
		}

		_, err := d.InsertRegistration(ctx, reg)
		require.NoError(t, err)

		reg.UserID = 2
		_, err = d.InsertRegistration(ctx, reg)
		require.ErrorIs(t, err, ErrRegistrationNumberTaken)
	})

	t.Run("active registrations exclude cancelled", func(t *testing.T) {
		reg, err := d.InsertRegistration(ctx, EventRegistration{
			EventID:            event.ID,
			UserID:             3,
			UserName:           "ben",
			UserEmail:          "ben@example.com",
			RegistrationNumber: "EVT1-CANC-TEST",
			Status:             "registered",
		})
		require.NoError(t, err)

		before, err := d.CountActiveRegistrations(ctx, event.ID)
		require.NoError(t, err)

		require.NoError(t, d.UpdateRegistration(ctx, reg.ID, map[string]interface{}{"status": "cancelled"}))

		after, err := d.CountActiveRegistrations(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, before-1, after)

		_, err = d.FindActiveRegistration(ctx, event.ID, 3)
		require.ErrorIs(t, err, ErrRegistrationNotFound)

		// The cancelled row is still visible to the unfiltered lookup.
		found, err := d.FindRegistrationByEventAndUser(ctx, event.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", found.Status)
	})

	t.Run("waitlist ordering and lifecycle", func(t *testing.T) {
		for i, userID := range []uint{10, 11, 12} {
			_, err := d.InsertWaitlistEntry(ctx, EventWaitlist{
				EventID:   event.ID,
				UserID:    userID,
				UserName:  fmt.Sprintf("user-%d", userID),
				UserEmail: fmt.Sprintf("user-%d@example.com", userID),
				Position:  i + 1,
			})
			require.NoError(t, err)
		}

		entries, err := d.ListWaitlistByEvent(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, uint(10), entries[0].UserID)
		assert.Equal(t, uint(12), entries[2].UserID)

		expires := time.Now().Add(24 * time.Hour)
		require.NoError(t, d.UpdateWaitlistEntry(ctx, entries[0].ID, map[string]interface{}{
			"notified":   true,
			"expires_at": expires,
		}))

		first, err := d.FindWaitlistEntryByEventAndUser(ctx, event.ID, 10)
		require.NoError(t, err)
		assert.True(t, first.Notified)
		require.NotNil(t, first.ExpiresAt)

		require.NoError(t, d.DeleteWaitlistEntry(ctx, entries[0].ID))
		_, err = d.FindWaitlistEntryByEventAndUser(ctx, event.ID, 10)
		require.ErrorIs(t, err, ErrWaitlistEntryNotFound)
	})

	t.Run("feedback", func(t *testing.T) {
		created, err := d.InsertFeedback(ctx, EventFeedback{
			EventID:       event.ID,
			UserID:        1,
			UserName:      "ana",
			OverallRating: 4,
			Comments:      "well organized",
		})
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		found, err := d.FindFeedbackByEventAndUser(ctx, event.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 4, found.OverallRating)

		_, err = d.FindFeedbackByEventAndUser(ctx, event.ID, 99)
		require.ErrorIs(t, err, ErrFeedbackNotFound)

		all, err := d.ListFeedbackByEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
