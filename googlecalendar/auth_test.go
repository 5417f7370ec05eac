package googlecalendar

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		wantSent string
	}{
		{name: "accepted", query: "state=abc&code=4/xyz", wantCode: http.StatusOK, wantSent: "4/xyz"},
		{name: "wrong state", query: "state=other&code=4/xyz", wantCode: http.StatusBadRequest},
		{name: "no state", query: "code=4/xyz", wantCode: http.StatusBadRequest},
		{name: "missing code", query: "state=abc", wantCode: http.StatusBadRequest},
		{name: "denied", query: "state=abc&error=access_denied", wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(chan string, 1)
			rec := httptest.NewRecorder()
			callbackHandler("abc", codes).ServeHTTP(rec, httptest.NewRequest("GET", "/?"+tt.query, nil))
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantSent == "" {
				assert.Empty(t, codes)
				return
			}
			require.Len(t, codes, 1)
			assert.Equal(t, tt.wantSent, <-codes)
		})
	}
}
