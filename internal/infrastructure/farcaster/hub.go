package farcaster

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/httpclient"
)

// ErrInvalidMessage indicates the hub rejected the frame message
var ErrInvalidMessage = errors.New("invalid frame message")

// Packet is the body Farcaster clients POST to a frame
type Packet struct {
	UntrustedData struct {
		FID         int64  `json:"fid"`
		URL         string `json:"url"`
		MessageHash string `json:"messageHash"`
		Timestamp   int64  `json:"timestamp"`
		Network     int    `json:"network"`
		ButtonIndex int    `json:"buttonIndex"`
		InputText   string `json:"inputText"`
		State       string `json:"state"`
		CastID      struct {
			FID  int64  `json:"fid"`
			Hash string `json:"hash"`
		} `json:"castId"`
	} `json:"untrustedData"`
	TrustedData struct {
		MessageBytes string `json:"messageBytes"`
	} `json:"trustedData"`
}

// ParsePacket decodes a frame POST body
func ParsePacket(body []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode frame packet: %w", err)
	}
	return &p, nil
}

type validateResponse struct {
	Valid   bool `json:"valid"`
	Message struct {
		Data struct {
			FID             int64 `json:"fid"`
			FrameActionBody struct {
				URL         string `json:"url"`
				ButtonIndex int    `json:"buttonIndex"`
				State       string `json:"state"`
			} `json:"frameActionBody"`
		} `json:"data"`
	} `json:"message"`
}

// Validator resolves the interaction context of a frame packet
type Validator struct {
	client *httpclient.Client
	hubURL string
	logger *zap.Logger
}

// NewValidator creates a validator. Without a hub URL packets are trusted as-is.
func NewValidator(cfg config.FarcasterConfig, logger *zap.Logger) *Validator {
	return &Validator{
		client: httpclient.New("farcaster_hub", cfg.RequestTimeout, logger,
			httpclient.WithHeader("x-airstack-hubs", cfg.HubAPIKey),
		),
		hubURL: strings.TrimRight(cfg.HubURL, "/"),
		logger: logger,
	}
}

// Validate returns the message carried by p
func (v *Validator) Validate(ctx context.Context, p *Packet) (*entities.FrameMessage, error) {
	if v.hubURL == "" {
		v.logger.Debug("No hub configured, using untrusted frame data",
			zap.Int64("fid", p.UntrustedData.FID),
		)
		return &entities.FrameMessage{
			RequesterFID: p.UntrustedData.FID,
			URL:          p.UntrustedData.URL,
			ButtonIndex:  p.UntrustedData.ButtonIndex,
			State:        p.UntrustedData.State,
		}, nil
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(p.TrustedData.MessageBytes, "0x"))
	if err != nil || len(raw) == 0 {
		return nil, fmt.Errorf("%w: messageBytes is not hex", ErrInvalidMessage)
	}

	body, err := v.client.Post(ctx, v.hubURL+"/v1/validateMessage", "application/octet-stream", raw)
	if err != nil {
		return nil, fmt.Errorf("hub validation failed: %w", err)
	}

	var resp validateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode hub response: %w", err)
	}
	if !resp.Valid {
		return nil, ErrInvalidMessage
	}

	action := resp.Message.Data.FrameActionBody
	return &entities.FrameMessage{
		RequesterFID: resp.Message.Data.FID,
		URL:          decodeBytesField(action.URL),
		ButtonIndex:  action.ButtonIndex,
		State:        decodeBytesField(action.State),
		Verified:     true,
	}, nil
}

// decodeBytesField decodes a protobuf bytes field rendered as base64 JSON
func decodeBytesField(s string) string {
	if s == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(b)
}
