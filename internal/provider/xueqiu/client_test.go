package xueqiu_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stocksim/internal/provider"
	xueqiu "stocksim/internal/provider/xueqiu"
)

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestFetchQuote_BootstrapsSessionFirst(t *testing.T) {
	t.Parallel()

	// Arrange: a mock HTTP client that expects the session page first, then
	// the quote endpoint.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	gomock.InOrder(
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "https://session.example", req.URL.String())
				return jsonResponse(`<html></html>`), nil
			}),
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.True(t, strings.HasPrefix(req.URL.String(), "https://api.example/v5/stock/quote.json"))
				require.Equal(t, "SH600036", req.URL.Query().Get("symbol"))
				return jsonResponse(`{"data":{"quote":{"symbol":"SH600036","name":"招商银行","current":35.68,"last_close":35.66}}}`), nil
			}),
	)

	client := xueqiu.NewAPIClient(
		xueqiu.WithHTTPClient(httpClient),
		xueqiu.WithBaseURL("https://api.example"),
		xueqiu.WithSessionURL("https://session.example"),
	)
	source := xueqiu.NewSource("xueqiu", client)

	// Act
	snap, err := source.FetchQuote(context.Background(), "600036.SH")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "招商银行", snap.Name)
	require.InDelta(t, 35.68, snap.Price, 1e-9)
	require.InDelta(t, 0.02, snap.Change, 1e-9)
}

func TestFetchQuote_SessionReusedAcrossCalls(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	quoteBody := `{"data":{"quote":{"name":"平安银行","current":10.5,"last_close":10.0}}}`
	session := httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(``), nil
		}).
		Times(1)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(quoteBody), nil
		}).
		Times(2).
		After(session)

	client := xueqiu.NewAPIClient(
		xueqiu.WithHTTPClient(httpClient),
		xueqiu.WithBaseURL("https://api.example"),
		xueqiu.WithSessionURL("https://session.example"),
	)
	source := xueqiu.NewSource("", client)

	for i := 0; i < 2; i++ {
		_, err := source.FetchQuote(context.Background(), "000001.SZ")
		require.NoError(t, err)
	}
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(`{"data":{"item":[]}}`), nil
		}).
		Times(2)

	client := xueqiu.NewAPIClient(
		xueqiu.WithHTTPClient(httpClient),
		xueqiu.WithBaseURL("https://api.example"),
		xueqiu.WithSessionURL("https://session.example"),
		xueqiu.WithHeader(http.Header{"foo": []string{"bar"}}),
	)
	source := xueqiu.NewSource("", client)

	h, err := source.FetchHistory(context.Background(), "600036.SH", provider.PeriodDaily)
	require.NoError(t, err)
	require.Empty(t, h.Prices)
	require.Empty(t, h.Dates)
}

func TestFetchHistory_ParsesItems(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	body := `{"data":{"symbol":"SH600036","item":[
		[1741219200,35.10,35.40,35.55,35.00,120000],
		[1741305600,35.40,35.66,35.80,35.30,98000]
	]}}`
	first := httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(``), nil
		})
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "day", req.URL.Query().Get("period"))
			return jsonResponse(body), nil
		}).
		After(first)

	client := xueqiu.NewAPIClient(
		xueqiu.WithHTTPClient(httpClient),
		xueqiu.WithBaseURL("https://api.example"),
		xueqiu.WithSessionURL("https://session.example"),
	)
	source := xueqiu.NewSource("", client)

	h, err := source.FetchHistory(context.Background(), "600036.SH", provider.PeriodDaily)
	require.NoError(t, err)
	require.Len(t, h.Prices, 2)
	require.Equal(t, h.Prices[1], 35.66)
	require.Len(t, h.Dates, 2)
	require.Equal(t, "2025-03-06", h.Dates[0])
}

func TestFetchQuote_MissingQuoteIsParseError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(`{"error_code":400016}`), nil
		}).
		Times(2)

	client := xueqiu.NewAPIClient(
		xueqiu.WithHTTPClient(httpClient),
		xueqiu.WithBaseURL("https://api.example"),
		xueqiu.WithSessionURL("https://session.example"),
	)
	source := xueqiu.NewSource("", client)

	_, err := source.FetchQuote(context.Background(), "600036.SH")
	require.Error(t, err)
	require.True(t, provider.IsParse(err))
}
