package http_request

import (
	"context"
	"testing"

	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"
)

func requestNode(props map[string]string) model.NodeType {
	nt := model.NodeType{Name: "http", Module: "core", Handler: "http_request"}
	for name, val := range props {
		v := cty.StringVal(val)
		nt.Properties = append(nt.Properties, model.Property{Name: name, Type: cty.String, Default: &v})
	}
	return nt
}

func TestInitHttpRequest(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		props   map[string]string
		wantErr string
	}{
		{name: "no defaults", props: nil},
		{name: "valid", props: map[string]string{"url": "https://example.com/hook", "method": "post", "timeout": "5s"}},
		{name: "bad scheme", props: map[string]string{"url": "ftp://example.com"}, wantErr: "unsupported URL scheme 'ftp'"},
		{name: "no host", props: map[string]string{"url": "http://"}, wantErr: "has no host"},
		{name: "bad method", props: map[string]string{"method": "BREW"}, wantErr: "unsupported HTTP method 'BREW'"},
		{name: "bad timeout", props: map[string]string{"timeout": "soon"}, wantErr: "invalid timeout"},
		{name: "zero timeout", props: map[string]string{"timeout": "0s"}, wantErr: "must be positive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := InitHttpRequest(ctx, requestNode(tc.props))
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
