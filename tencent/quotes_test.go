package tencent

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// quoteRecord builds one `v_code="..."` record with the given fields set
// and every other position zeroed.
func quoteRecord(key string, fields map[int]string) string {
	f := make([]string, fieldLow+2)
	for i := range f {
		f[i] = "0"
	}
	for i, v := range fields {
		f[i] = v
	}
	return fmt.Sprintf("v_%s=\"%s\";", key, strings.Join(f, "~"))
}

func gbk(t *testing.T, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(simplifiedchinese.GB18030.NewEncoder(), []byte(s))
	require.NoError(t, err)
	return out
}

func TestQuotes(t *testing.T) {
	payload := quoteRecord("sh600519", map[int]string{
		fieldName:          "贵州茅台",
		fieldCurrent:       "1600.00",
		fieldPrevClose:     "1587.50",
		fieldOpen:          "1590.00",
		fieldVolume:        "28500",
		fieldChangeAmount:  "12.50",
		fieldChangePercent: "0.79",
		fieldHigh:          "1620.00",
		fieldLow:           "1585.00",
	}) + "\n" + quoteRecord("hk00700", map[int]string{
		fieldName:    "腾讯控股",
		fieldCurrent: "352.40",
	})

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(gbk(t, payload))
	}))
	defer srv.Close()

	c := New(WithQuoteURL(srv.URL+"/?q="), WithHTTP(srv.Client()))
	quotes, err := c.Quotes([]string{"sh600519", "hk00700"})
	require.NoError(t, err)
	assert.Equal(t, "q=sh600519,hk00700", gotQuery)
	require.Len(t, quotes, 2)

	mt := quotes["sh600519"]
	assert.Equal(t, "贵州茅台", mt.Name)
	assert.Equal(t, "1600", mt.Current.String())
	assert.Equal(t, "1587.5", mt.PrevClose.String())
	assert.Equal(t, "12.5", mt.ChangeAmount.String())
	assert.Equal(t, "0.79", mt.ChangePercent.String())
	assert.Equal(t, "1620", mt.High.String())

	assert.Equal(t, "腾讯控股", quotes["hk00700"].Name)
}

func TestQuotes_ShortRecordSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gbk(t, `v_sh600519="1~name~too~short";`))
	}))
	defer srv.Close()

	c := New(WithQuoteURL(srv.URL+"/?q="), WithHTTP(srv.Client()))
	quotes, err := c.Quotes([]string{"sh600519"})
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestQuotes_EmptyBatch(t *testing.T) {
	c := New()
	quotes, err := c.Quotes(nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestRequestCode(t *testing.T) {
	tests := []struct{ in, want string }{
		{"sh600519", "sh600519"},
		{"hk00700", "hk00700"},
		{"usAAPL", "usAAPL.OQ"},
		{"usDJI", "usDJI"},
		{"usIXIC", "usIXIC"},
		{"usBRK.A", "usBRK.A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, requestCode(tt.in), "requestCode(%q)", tt.in)
	}
}

func TestQuotes_USCodeMappedBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gbk(t, quoteRecord("usAAPL.OQ", map[int]string{
			fieldName:    "Apple Inc",
			fieldCurrent: "228.50",
		})))
	}))
	defer srv.Close()

	c := New(WithQuoteURL(srv.URL+"/?q="), WithHTTP(srv.Client()))
	quotes, err := c.Quotes([]string{"usAAPL"})
	require.NoError(t, err)
	require.Contains(t, quotes, "usAAPL")
	assert.Equal(t, "228.5", quotes["usAAPL"].Current.String())
}
