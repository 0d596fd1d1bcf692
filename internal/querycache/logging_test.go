package querycache

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/aussiebroadwan/studio/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFetchContextCarriesCacheLogger(t *testing.T) {
	t.Parallel()

	var out syncBuffer
	c := New("schedule", Config{Logger: slog.New(slog.NewTextHandler(&out, nil))})
	q := NewQuery(c, QueryDef[string, string]{
		Name: "getMyCalendar",
		Fetch: func(ctx context.Context, arg string) (string, error) {
			slogx.FromContext(ctx, slogx.Discard()).Info("calling backend")
			return arg, nil
		},
	})

	_, err := q.Fetch(t.Context(), "week", false)
	require.NoError(t, err)

	var line string
	for _, l := range strings.Split(out.String(), "\n") {
		if strings.Contains(l, "calling backend") {
			line = l
		}
	}
	require.Contains(t, line, "cache=schedule")
	require.Contains(t, line, "endpoint=getMyCalendar")
}
