// Package restyutil captures raw HTTP transactions made by a resty
// client, mainly to debug storefront markup changes without hammering
// the live sites.
package restyutil

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type DumpOutput interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	os.RemoveAll(dir)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".http"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http dump", "id", id, "err", err)
	}
}

// DumpTransactions writes every completed request/response pair on the
// client to output. A nil output makes this a no-op.
func DumpTransactions(client *resty.Client, output DumpOutput) {
	if output == nil {
		return
	}

	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
		output.Write(id, formatTransaction(res))
		slog.Debug("dumped http transaction",
			"id", id, "method", res.Request.Method, "url", res.Request.URL)
		return nil
	})
}

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for key, values := range headers {
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\n", key, value)
		}
	}
	return strings.TrimRight(out.String(), "\n")
}

func formatTransaction(res *resty.Response) string {
	responseUrl := res.Request.URL
	if redirected, err := res.RawResponse.Location(); err == nil {
		responseUrl = redirected.String()
	}

	var out strings.Builder
	fmt.Fprintf(&out, "---- REQUEST ----\n\n%s %s\n\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		out.WriteString(formatHeaders(res.Request.RawRequest.Header))
		out.WriteString("\n\n")
	}
	fmt.Fprintf(&out, "---- RESPONSE ----\n\n%d %s\n\n", res.StatusCode(), responseUrl)
	out.WriteString(formatHeaders(res.Header()))
	out.WriteString("\n\n")
	out.WriteString(res.String())
	return out.String()
}
