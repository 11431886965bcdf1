package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
)

// decodeRequest copies in into out through its JSON form, rejecting fields
// out does not declare.
func decodeRequest(in *structpb.Struct, out any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return invalidRequest(fmt.Sprintf("encode request: %v", err))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return invalidRequest(fmt.Sprintf("decode request: %v", err))
	}
	return nil
}

// encodeResponse renders v as a Struct through its JSON form.
func encodeResponse(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

func invalidRequest(reason string) error {
	return apperrors.WithMetadata(apperrors.CodePayloadInvalid, reason, map[string]string{"Reason": reason})
}

func requireField(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalidRequest(name + " is required")
	}
	return value, nil
}

// seedValue accepts a seed as a JSON number or a decimal string, since Struct
// numbers are doubles and cannot carry every int64.
type seedValue struct {
	value *int64
}

func (s *seedValue) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		return nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != float64(int64(f)) {
			return fmt.Errorf("seed %q is not an integer", text)
		}
		n = int64(f)
	}
	s.value = &n
	return nil
}
