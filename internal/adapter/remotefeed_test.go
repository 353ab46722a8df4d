package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSheetsURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "sharing url",
			in:   "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0",
			want: "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/export?format=csv",
		},
		{
			name: "sharing url with usp param",
			in:   "https://docs.google.com/spreadsheets/d/xyz789/edit?usp=sharing",
			want: "https://docs.google.com/spreadsheets/d/xyz789/export?format=csv",
		},
		{
			name: "already export form",
			in:   "https://docs.google.com/spreadsheets/d/xyz789/export?format=csv",
			want: "https://docs.google.com/spreadsheets/d/xyz789/export?format=csv",
		},
		{
			name: "apps script endpoint untouched",
			in:   "https://script.google.com/macros/s/KEY/exec",
			want: "https://script.google.com/macros/s/KEY/exec",
		},
		{
			name: "plain url untouched",
			in:   "https://supplier.example.com/feed.csv",
			want: "https://supplier.example.com/feed.csv",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertSheetsURL(tt.in))
		})
	}
}

func TestRemoteFeedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Stock,Carat\nA1,1.0\n"))
	}))
	defer srv.Close()

	src := NewRemoteFeedSource(srv.URL, time.Second)
	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Stock,Carat\nA1,1.0\n", string(body))
}

func TestRemoteFeedFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	src := NewRemoteFeedSource(srv.URL, time.Second)
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestRemoteFeedFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := NewRemoteFeedSource(srv.URL, time.Second)
	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestRemoteFeedFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewRemoteFeedSource(srv.URL, time.Second)
	_, err := src.Fetch(ctx)
	require.Error(t, err)
}
