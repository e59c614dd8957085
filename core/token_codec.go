package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	TokenPayloadFormatJSONV1 = "token_record_json"
	TokenPayloadFormatLegacy = "token_pair_json"
)

// JSONTokenCodec writes {token, token_secret, stage, saved_at}. Records written
// without a stage decode as TokenStageUnverified.
type JSONTokenCodec struct{}

func (JSONTokenCodec) Format() string {
	return TokenPayloadFormatJSONV1
}

type jsonTokenPayload struct {
	Token       string     `json:"token"`
	TokenSecret string     `json:"token_secret"`
	Stage       string     `json:"stage,omitempty"`
	SavedAt     *time.Time `json:"saved_at,omitempty"`
}

func (JSONTokenCodec) Encode(record TokenRecord) ([]byte, error) {
	if strings.TrimSpace(record.Token) == "" {
		return nil, fmt.Errorf("core: token record requires a token")
	}
	payload := jsonTokenPayload{
		Token:       record.Token,
		TokenSecret: record.TokenSecret,
		Stage:       string(record.Stage),
	}
	if !record.SavedAt.IsZero() {
		savedAt := record.SavedAt.UTC()
		payload.SavedAt = &savedAt
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("core: encode token record: %w", err)
	}
	return encoded, nil
}

func (JSONTokenCodec) Decode(payload []byte) (TokenRecord, error) {
	if len(payload) == 0 {
		return TokenRecord{}, fmt.Errorf("core: token record payload is empty")
	}
	decoded := jsonTokenPayload{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return TokenRecord{}, fmt.Errorf("core: decode token record: %w", err)
	}
	if strings.TrimSpace(decoded.Token) == "" {
		return TokenRecord{}, fmt.Errorf("core: token record payload has no token")
	}
	stage, err := ParseTokenStage(decoded.Stage)
	if err != nil {
		return TokenRecord{}, err
	}
	record := TokenRecord{
		Token:       decoded.Token,
		TokenSecret: decoded.TokenSecret,
		Stage:       stage,
	}
	if decoded.SavedAt != nil {
		record.SavedAt = decoded.SavedAt.UTC()
	}
	return record, nil
}

// LegacyTokenCodec reads and writes the bare two-field record. Stage is never
// written, so decoded records are always unverified.
type LegacyTokenCodec struct{}

func (LegacyTokenCodec) Format() string {
	return TokenPayloadFormatLegacy
}

func (LegacyTokenCodec) Encode(record TokenRecord) ([]byte, error) {
	if strings.TrimSpace(record.Token) == "" {
		return nil, fmt.Errorf("core: legacy token record requires a token")
	}
	encoded, err := json.Marshal(jsonTokenPayload{
		Token:       record.Token,
		TokenSecret: record.TokenSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("core: encode legacy token record: %w", err)
	}
	return encoded, nil
}

func (LegacyTokenCodec) Decode(payload []byte) (TokenRecord, error) {
	decoded := jsonTokenPayload{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return TokenRecord{}, fmt.Errorf("core: decode legacy token record: %w", err)
	}
	if strings.TrimSpace(decoded.Token) == "" {
		return TokenRecord{}, fmt.Errorf("core: legacy token record payload has no token")
	}
	return TokenRecord{
		Token:       decoded.Token,
		TokenSecret: decoded.TokenSecret,
		Stage:       TokenStageUnverified,
	}, nil
}

// ResolveTokenCodec returns the codec registered for format. An empty format
// resolves to JSONTokenCodec.
func ResolveTokenCodec(format string) (TokenCodec, error) {
	switch strings.TrimSpace(format) {
	case "", TokenPayloadFormatJSONV1:
		return JSONTokenCodec{}, nil
	case TokenPayloadFormatLegacy:
		return LegacyTokenCodec{}, nil
	default:
		return nil, fmt.Errorf("core: unsupported token payload format %q", format)
	}
}

// SealTokenRecord encodes a record and, when secrets is set, encrypts it.
func SealTokenRecord(ctx context.Context, codec TokenCodec, secrets SecretProvider, record TokenRecord) ([]byte, error) {
	if codec == nil {
		codec = JSONTokenCodec{}
	}
	payload, err := codec.Encode(record)
	if err != nil {
		return nil, err
	}
	if secrets == nil {
		return payload, nil
	}
	sealed, err := secrets.Encrypt(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("core: encrypt token record: %w", err)
	}
	return sealed, nil
}

// OpenTokenRecord reverses SealTokenRecord.
func OpenTokenRecord(ctx context.Context, codec TokenCodec, secrets SecretProvider, payload []byte) (TokenRecord, error) {
	if codec == nil {
		codec = JSONTokenCodec{}
	}
	if secrets != nil {
		plaintext, err := secrets.Decrypt(ctx, payload)
		if err != nil {
			return TokenRecord{}, fmt.Errorf("core: decrypt token record: %w", err)
		}
		payload = plaintext
	}
	return codec.Decode(payload)
}
