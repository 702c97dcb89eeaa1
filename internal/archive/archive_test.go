package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	body, _ := io.ReadAll(params.Body)
	f.body = body
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiveWritesPayload(t *testing.T) {
	fake := &fakePutter{}
	a := NewS3WithClient(fake, "imports-bucket")
	a.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	companyID := uuid.MustParse("11111111-1111-4111-8111-111111111111")

	key, err := a.Archive(context.Background(), "prices", companyID, []byte(`{"prices":[]}`), "application/json")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "imports/11111111-1111-4111-8111-111111111111/prices/2026-10-17/"))
	assert.True(t, strings.HasSuffix(key, ".json"))
	require.NotNil(t, fake.input)
	assert.Equal(t, "imports-bucket", *fake.input.Bucket)
	assert.Equal(t, key, *fake.input.Key)
	assert.Equal(t, "prices", fake.input.Metadata["import-kind"])
	assert.Equal(t, `{"prices":[]}`, string(fake.body))
}

func TestS3ArchiveWrapsErrors(t *testing.T) {
	a := NewS3WithClient(&fakePutter{err: errors.New("AccessDenied")}, "b")
	_, err := a.Archive(context.Background(), "customers", uuid.New(), []byte("x"), "text/csv")
	assert.ErrorContains(t, err, "put archive object")
}

func TestNoopArchive(t *testing.T) {
	key, err := Noop{}.Archive(context.Background(), "products", uuid.New(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, key)
}
