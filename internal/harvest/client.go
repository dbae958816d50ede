package harvest

import (
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/skoobtools/estante/internal/skoob"
)

// requestTimeout bounds a single page request.
const requestTimeout = 30 * time.Second

// newHTTPClient builds the resty client for one harvest. The header set
// mirrors what the site frontend sends, including an explicit
// accept-encoding, so bodies arrive still compressed. Response parsing
// is disabled: resty would reject a body whose declared encoding does
// not match its bytes, and surviving exactly that mismatch is the
// engine's job.
func newHTTPClient(credential string, delay time.Duration) *resty.Client {
	httpc := resty.New()
	httpc.SetHeaders(skoob.BrowserHeaders(credential))
	httpc.SetTimeout(requestTimeout)
	httpc.SetDoNotParseResponse(true)

	if delay > 0 {
		limiter := rate.NewLimiter(rate.Every(delay), 1)
		httpc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
	return httpc
}
