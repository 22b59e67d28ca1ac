package pinning_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alwitt/witness/pinning"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestPinataPin(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testServer := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(http.MethodPost, r.Method)
			assert.Equal("/pinning/pinFileToIPFS", r.URL.Path)
			assert.Equal("test-key", r.Header.Get("pinata_api_key"))
			assert.Equal("test-secret", r.Header.Get("pinata_secret_api_key"))

			assert.Nil(r.ParseMultipartForm(1 << 20))
			file, header, err := r.FormFile("file")
			assert.Nil(err)
			defer func() { _ = file.Close() }()
			assert.Equal("recording-01.webm", header.Filename)
			content, err := io.ReadAll(file)
			assert.Nil(err)
			assert.Equal([]byte("payload-bytes"), content)
			assert.Contains(r.FormValue("pinataMetadata"), "recording-01.webm")

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"IpfsHash": "QmPinnedHash",
				"PinSize": 13,
				"Timestamp": "2026-08-01T10:00:00Z"
			}`)
		}),
	)
	defer testServer.Close()

	uut, err := pinning.NewPinataPinner(
		"test-key", "test-secret", testServer.URL, "https://gateway.example.com/ipfs", 0,
	)
	assert.Nil(err)

	receipt, err := uut.Pin(
		utCtx,
		bytes.NewReader([]byte("payload-bytes")),
		13,
		pinning.UploadMetadata{Name: "recording-01.webm", ContentType: "audio/webm"},
	)
	assert.Nil(err)
	assert.Equal("QmPinnedHash", receipt.Hash)
	assert.Equal(int64(13), receipt.PinSize)
	assert.Equal("https://gateway.example.com/ipfs/QmPinnedHash", receipt.GatewayURL)
}

func TestPinataUnpin(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testServer := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(http.MethodDelete, r.Method)
			assert.Equal("/pinning/unpin/QmPinnedHash", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}),
	)
	defer testServer.Close()

	uut, err := pinning.NewPinataPinner("test-key", "test-secret", testServer.URL, "", 0)
	assert.Nil(err)

	assert.Nil(uut.Unpin(utCtx, "QmPinnedHash"))
}

func TestPinataUnpinFailure(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testServer := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	)
	defer testServer.Close()

	uut, err := pinning.NewPinataPinner("test-key", "test-secret", testServer.URL, "", 0)
	assert.Nil(err)

	assert.Error(uut.Unpin(utCtx, "QmMissing"))
}

func TestPinataListPins(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testServer := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("/data/pinList", r.URL.Path)
			assert.Equal("pinned", r.URL.Query().Get("status"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"rows": [
					{
						"ipfs_pin_hash": "QmHashOne",
						"size": 100,
						"date_pinned": "2026-08-01T10:00:00Z",
						"metadata": {"name": "recording-01.webm"}
					},
					{
						"ipfs_pin_hash": "QmHashTwo",
						"size": 200,
						"date_pinned": "2026-08-02T10:00:00Z",
						"metadata": {"name": "recording-02.webm"}
					}
				]
			}`)
		}),
	)
	defer testServer.Close()

	uut, err := pinning.NewPinataPinner("test-key", "test-secret", testServer.URL, "", 0)
	assert.Nil(err)

	listed, err := uut.ListPins(utCtx)
	assert.Nil(err)
	assert.Len(listed, 2)
	assert.Equal("QmHashOne", listed[0].Hash)
	assert.Equal(int64(100), listed[0].Size)
	assert.Equal("recording-01.webm", listed[0].Name)
	assert.Equal("QmHashTwo", listed[1].Hash)
}

func TestPinataCredentialsRequired(t *testing.T) {
	assert := assert.New(t)

	_, err := pinning.NewPinataPinner("", "", "", "", 0)
	assert.Error(err)
}
