// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urlscheme

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseExtractsEndpointPathAndQuery(t *testing.T) {
	p, err := Parse("danejoe://127.0.0.1:9000/download?file_id=7&task_id=100")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", p.Endpoint)
	require.Equal(t, "/download", p.Path)
	require.Equal(t, "7", p.Query.Get("file_id"))
	require.Equal(t, "100", p.Query.Get("task_id"))
}

func TestParseRejectsOtherSchemes(t *testing.T) {
	_, err := Parse("http://127.0.0.1:9000/download")
	require.Error(t, err)
}

func TestParseRejectsMissingHost(t *testing.T) {
	_, err := Parse("danejoe:///download")
	require.Error(t, err)
}

func TestStringRoundTrips(t *testing.T) {
	p := Parsed{Endpoint: "host:1234", Path: "/block"}
	got, err := Parse(p.String())
	require.NoError(t, err)
	require.Equal(t, p.Endpoint, got.Endpoint)
	require.Equal(t, p.Path, got.Path)
}
