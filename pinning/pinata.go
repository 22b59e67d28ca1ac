package pinning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// DefaultPinataEndpoint the public Pinata API endpoint
const DefaultPinataEndpoint = "https://api.pinata.cloud"

// DefaultPinataGateway the public Pinata retrieval gateway
const DefaultPinataGateway = "https://gateway.pinata.cloud/ipfs"

// DefaultPinataTimeout bound on Pinata API calls. Pin uploads carry whole
// recording payloads, so the bound is generous.
const DefaultPinataTimeout = time.Minute * 2

// pinataPinResponse response payload of pinFileToIPFS
type pinataPinResponse struct {
	IpfsHash  string    `json:"IpfsHash"`
	PinSize   int64     `json:"PinSize"`
	Timestamp time.Time `json:"Timestamp"`
}

// pinataListResponse response payload of pinList
type pinataListResponse struct {
	Rows []struct {
		IpfsPinHash string    `json:"ipfs_pin_hash"`
		Size        int64     `json:"size"`
		DatePinned  time.Time `json:"date_pinned"`
		Metadata    struct {
			Name string `json:"name"`
		} `json:"metadata"`
	} `json:"rows"`
}

// pinataPinner implements Pinner against the Pinata REST API
type pinataPinner struct {
	goutils.Component

	endpoint  string
	gateway   string
	apiKey    string
	apiSecret string
	client    *http.Client
}

/*
NewPinataPinner define a Pinata pinning client

	@param apiKey string - Pinata API key
	@param apiSecret string - Pinata API secret
	@param endpoint string - API endpoint. Empty for the public endpoint.
	@param gateway string - retrieval gateway base URL. Empty for the public gateway.
	@param timeout time.Duration - bound on API calls. Zero for the default.
	@returns pinner instance
*/
func NewPinataPinner(
	apiKey, apiSecret, endpoint, gateway string, timeout time.Duration,
) (Pinner, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("pinata API credentials are required")
	}
	if endpoint == "" {
		endpoint = DefaultPinataEndpoint
	}
	if gateway == "" {
		gateway = DefaultPinataGateway
	}
	if timeout == 0 {
		timeout = DefaultPinataTimeout
	}
	return &pinataPinner{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "pinning", "component": "pinata-client"},
		},
		endpoint:  endpoint,
		gateway:   gateway,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// authorize attach the Pinata credential headers
func (p *pinataPinner) authorize(request *http.Request) {
	request.Header.Set("pinata_api_key", p.apiKey)
	request.Header.Set("pinata_secret_api_key", p.apiSecret)
}

/*
Pin forward a payload to the collaborator

	@param ctx context.Context - execution context
	@param payload io.Reader - payload content
	@param size int64 - payload size in bytes
	@param metadata UploadMetadata - payload descriptors
	@returns the pin receipt
*/
func (p *pinataPinner) Pin(
	ctx context.Context, payload io.Reader, _ int64, metadata UploadMetadata,
) (PinReceipt, error) {
	logTags := p.GetLogTagsForContext(ctx)

	// Stream the multipart body instead of buffering the payload
	bodyReader, bodyWriter := io.Pipe()
	multipartWriter := multipart.NewWriter(bodyWriter)
	go func() {
		err := func() error {
			partHeader := textproto.MIMEHeader{}
			partHeader.Set(
				"Content-Disposition",
				fmt.Sprintf(`form-data; name="file"; filename="%s"`, metadata.Name),
			)
			if metadata.ContentType != "" {
				partHeader.Set("Content-Type", metadata.ContentType)
			}
			filePart, err := multipartWriter.CreatePart(partHeader)
			if err != nil {
				return err
			}
			if _, err := io.Copy(filePart, payload); err != nil {
				return err
			}
			pinataMetadata := map[string]interface{}{"name": metadata.Name}
			if len(metadata.Keyvalues) > 0 {
				pinataMetadata["keyvalues"] = metadata.Keyvalues
			}
			encoded, err := json.Marshal(pinataMetadata)
			if err != nil {
				return err
			}
			if err := multipartWriter.WriteField("pinataMetadata", string(encoded)); err != nil {
				return err
			}
			return multipartWriter.Close()
		}()
		_ = bodyWriter.CloseWithError(err)
	}()

	request, err := http.NewRequestWithContext(
		ctx, http.MethodPost, fmt.Sprintf("%s/pinning/pinFileToIPFS", p.endpoint), bodyReader,
	)
	if err != nil {
		return PinReceipt{}, fmt.Errorf("failed to build pin request [%w]", err)
	}
	request.Header.Set("Content-Type", multipartWriter.FormDataContentType())
	p.authorize(request)

	response, err := p.client.Do(request)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Pin upload failed")
		return PinReceipt{}, fmt.Errorf("pin upload failed [%w]", err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		return PinReceipt{}, fmt.Errorf("pin upload returned status %d", response.StatusCode)
	}

	var parsed pinataPinResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return PinReceipt{}, fmt.Errorf("failed to parse pin response [%w]", err)
	}

	return PinReceipt{
		Hash:       parsed.IpfsHash,
		PinSize:    parsed.PinSize,
		Timestamp:  parsed.Timestamp,
		GatewayURL: fmt.Sprintf("%s/%s", p.gateway, parsed.IpfsHash),
	}, nil
}

/*
Unpin release a pinned payload

	@param ctx context.Context - execution context
	@param hash string - content hash of the pinned payload
*/
func (p *pinataPinner) Unpin(ctx context.Context, hash string) error {
	logTags := p.GetLogTagsForContext(ctx)

	request, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, fmt.Sprintf("%s/pinning/unpin/%s", p.endpoint, hash), nil,
	)
	if err != nil {
		return fmt.Errorf("failed to build unpin request [%w]", err)
	}
	p.authorize(request)

	response, err := p.client.Do(request)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unpin failed")
		return fmt.Errorf("unpin failed [%w]", err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unpin returned status %d", response.StatusCode)
	}
	return nil
}

/*
ListPins list payloads currently pinned with the collaborator

	@param ctx context.Context - execution context
	@returns the pin listing
*/
func (p *pinataPinner) ListPins(ctx context.Context) ([]PinListEntry, error) {
	logTags := p.GetLogTagsForContext(ctx)

	request, err := http.NewRequestWithContext(
		ctx, http.MethodGet, fmt.Sprintf("%s/data/pinList?status=pinned", p.endpoint), nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build pin list request [%w]", err)
	}
	p.authorize(request)

	response, err := p.client.Do(request)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Pin listing failed")
		return nil, fmt.Errorf("pin listing failed [%w]", err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pin listing returned status %d", response.StatusCode)
	}

	var parsed pinataListResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse pin listing [%w]", err)
	}

	result := make([]PinListEntry, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		result = append(result, PinListEntry{
			Hash:     row.IpfsPinHash,
			Size:     row.Size,
			PinnedAt: row.DatePinned,
			Name:     row.Metadata.Name,
		})
	}
	return result, nil
}
