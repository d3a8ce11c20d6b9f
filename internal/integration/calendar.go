package integration

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type calendarEvent struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Notes     string `json:"notes,omitempty"`
	Reference string `json:"reference"`
}

func eventFor(schedule model.Schedule) calendarEvent {
	return calendarEvent{
		Title:     schedule.Title,
		Date:      schedule.Date.Format(time.DateOnly),
		StartTime: schedule.StartTime,
		EndTime:   schedule.EndTime,
		Notes:     schedule.Notes,
		Reference: "schedule-" + strconv.FormatUint(schedule.ID, 10),
	}
}

type CalendarClient struct {
	client webhookClient
}

func NewCalendarClient(baseURL string, timeout time.Duration) *CalendarClient {
	return &CalendarClient{client: newWebhookClient(baseURL, timeout)}
}

func (c *CalendarClient) CreateEvent(ctx context.Context, schedule model.Schedule) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.client.do(ctx, http.MethodPost, "/events", eventFor(schedule), &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errMissingID
	}
	return out.ID, nil
}

func (c *CalendarClient) UpdateEvent(ctx context.Context, schedule model.Schedule) error {
	if schedule.CalendarEventID == "" {
		return nil
	}
	return c.client.do(ctx, http.MethodPut, "/events/"+url.PathEscape(schedule.CalendarEventID), eventFor(schedule), nil)
}

func (c *CalendarClient) DeleteEvent(ctx context.Context, schedule model.Schedule) error {
	if schedule.CalendarEventID == "" {
		return nil
	}
	return c.client.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(schedule.CalendarEventID), nil, nil)
}

// LogCalendar records calendar changes in the log only. It hands out no
// event ids, so accepted schedules stay unlinked.
type LogCalendar struct {
	log zerolog.Logger
}

func NewLogCalendar(log zerolog.Logger) *LogCalendar {
	return &LogCalendar{log: log}
}

func (c *LogCalendar) CreateEvent(_ context.Context, schedule model.Schedule) (string, error) {
	c.log.Info().Uint64("schedule_id", schedule.ID).Str("date", schedule.Date.Format(time.DateOnly)).Msg("calendar event")
	return "", nil
}

func (c *LogCalendar) UpdateEvent(_ context.Context, schedule model.Schedule) error {
	c.log.Info().Uint64("schedule_id", schedule.ID).Msg("calendar event updated")
	return nil
}

func (c *LogCalendar) DeleteEvent(_ context.Context, schedule model.Schedule) error {
	c.log.Info().Uint64("schedule_id", schedule.ID).Msg("calendar event deleted")
	return nil
}
