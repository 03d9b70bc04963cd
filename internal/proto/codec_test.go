package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestJSONCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)
	assert.Equal(t, CodecName, codec.Name())
}

func TestJSONCodec_Structs(t *testing.T) {
	codec := jsonCodec{}

	data, err := codec.Marshal(&ShortenRequest{LongUrl: "https://example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"long_url":"https://example.com"}`, string(data))

	var resp ShortenResponse
	err = codec.Unmarshal([]byte(`{
		"short_link": "https://bit.ly/abc",
		"similarity": {"score": 0.8, "is_similar": true, "message": "similar"},
		"similarity_status": "ok"
	}`), &resp)
	require.NoError(t, err)
	assert.Equal(t, "https://bit.ly/abc", resp.ShortLink)
	require.NotNil(t, resp.Similarity)
	assert.True(t, resp.Similarity.IsSimilar)
	assert.Equal(t, "ok", resp.SimilarityStatus)
}

func TestJSONCodec_ProtoMessages(t *testing.T) {
	codec := jsonCodec{}

	data, err := codec.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	require.NoError(t, codec.Unmarshal(data, &emptypb.Empty{}))
	require.NoError(t, codec.Unmarshal(nil, &emptypb.Empty{}))
}

func TestJSONCodec_Errors(t *testing.T) {
	codec := jsonCodec{}

	assert.Error(t, codec.Unmarshal([]byte(`{"long_url": 5}`), &ShortenRequest{}))
	assert.Error(t, codec.Unmarshal([]byte(`[`), &emptypb.Empty{}))

	_, err := codec.Marshal(&SimilarityVerdict{Score: badFloat()})
	assert.Error(t, err)
}

func badFloat() float64 {
	var zero float64
	return 1 / zero
}
