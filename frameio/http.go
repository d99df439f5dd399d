package frameio

import (
	"fmt"
	"net/url"

	"github.com/parquet-go/parquet-go"
	"howett.net/ranger"

	"chunkframe/frame"
)

// ReadURL loads a remote Parquet file over HTTP range requests, so only
// the pages actually read are transferred.
func ReadURL(urlStr string) (*frame.Frame, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	httpRanger := &ranger.HTTPRanger{URL: parsedURL}
	reader, err := ranger.NewReader(httpRanger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP reader: %w", err)
	}
	length, err := reader.Length()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP content length: %w", err)
	}

	pf, err := parquet.OpenFile(reader, length)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote parquet file: %w", err)
	}
	return frameFromParquet(pf)
}
