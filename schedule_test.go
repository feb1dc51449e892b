package qstash_test

import (
	"net/http"
	"testing"

	"github.com/lestrrat-go/qstash"
	"github.com/stretchr/testify/require"
)

func TestScheduleLifecycle(t *testing.T) {
	client, fake := newTestClient(t, map[string]cannedResponse{
		"POST /v2/schedules/https://example.com": {Body: `{"scheduleId":"scd_1"}`},
		"GET /v2/schedules/scd_1":                {Body: `{"scheduleId":"scd_1","cron":"* * * * *","destination":"https://example.com","isPaused":false}`},
		"GET /v2/schedules":                      {Body: `[{"scheduleId":"scd_1","cron":"* * * * *","destination":"https://example.com"}]`},
	})

	id, err := client.Schedule.CreateJSON(t.Context(), &qstash.ScheduleJSONRequest{
		ScheduleRequest: qstash.ScheduleRequest{
			Destination:     "https://example.com",
			Cron:            "* * * * *",
			DeliveryOptions: qstash.DeliveryOptions{Retries: qstash.Retries(2)},
		},
		Payload: map[string]string{"ex_key": "ex_value"},
	})
	require.NoError(t, err)
	require.Equal(t, "scd_1", id)

	req := fake.last(t)
	require.Equal(t, "/v2/schedules/https://example.com", req.Path)
	require.Equal(t, "* * * * *", req.Header.Get("Upstash-Cron"))
	require.Equal(t, "2", req.Header.Get("Upstash-Retries"))
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.JSONEq(t, `{"ex_key":"ex_value"}`, string(req.Body))

	s, err := client.Schedule.Get(t.Context(), id)
	require.NoError(t, err)
	require.Equal(t, id, s.ScheduleID)
	require.Equal(t, "* * * * *", s.Cron)

	list, err := client.Schedule.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, id, list[0].ScheduleID)

	require.NoError(t, client.Schedule.Pause(t.Context(), id))
	req = fake.last(t)
	require.Equal(t, http.MethodPatch, req.Method)
	require.Equal(t, "/v2/schedules/scd_1/pause", req.Path)

	require.NoError(t, client.Schedule.Resume(t.Context(), id))
	require.Equal(t, "/v2/schedules/scd_1/resume", fake.last(t).Path)

	require.NoError(t, client.Schedule.Delete(t.Context(), id))
	req = fake.last(t)
	require.Equal(t, http.MethodDelete, req.Method)
	require.Equal(t, "/v2/schedules/scd_1", req.Path)
}

func TestScheduleCreate(t *testing.T) {
	client, fake := newTestClient(t, map[string]cannedResponse{
		"POST /v2/schedules/my-group": {Body: `{"scheduleId":"scd_2"}`},
	})

	t.Run("replace existing schedule", func(t *testing.T) {
		id, err := client.Schedule.Create(t.Context(), &qstash.ScheduleRequest{
			Destination: "my-group",
			Cron:        "0 * * * *",
			Body:        []byte("tick"),
			ScheduleID:  "scd_2",
		})
		require.NoError(t, err)
		require.Equal(t, "scd_2", id)
		require.Equal(t, "scd_2", fake.last(t).Header.Get("Upstash-Schedule-Id"))
	})

	t.Run("validation", func(t *testing.T) {
		before := fake.count()
		_, err := client.Schedule.Create(t.Context(), &qstash.ScheduleRequest{Cron: "* * * * *"})
		require.ErrorIs(t, err, qstash.ErrMissingDestination)

		_, err = client.Schedule.Create(t.Context(), &qstash.ScheduleRequest{Destination: "https://example.com"})
		require.ErrorIs(t, err, qstash.ErrMissingCron)

		require.ErrorIs(t, client.Schedule.Delete(t.Context(), ""), qstash.ErrMissingID)
		require.Equal(t, before, fake.count())
	})
}
