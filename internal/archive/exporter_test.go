package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/domain"
	"github.com/prn-tf/eday-ledger/internal/pkg/crypto"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

type fakeLedger struct {
	candidates []domain.Candidate
	users      []domain.User
}

func (f fakeLedger) ListCandidates(context.Context) ([]domain.Candidate, error) {
	return f.candidates, nil
}

func (f fakeLedger) ListUsers(context.Context) ([]domain.User, error) {
	return f.users, nil
}

func TestExporter_Export(t *testing.T) {
	client := new(mockS3)
	var body []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "eday-archive" &&
			aws.ToString(in.Key) == "exports/ledger-1700000000.json" &&
			aws.ToString(in.ContentType) == "application/json"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		var err error
		body, err = io.ReadAll(in.Body)
		require.NoError(t, err)
	}).Return(&s3.PutObjectOutput{}, nil)

	e := NewExporter(client, "eday-archive", "exports", zerolog.Nop())
	e.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	ledger := fakeLedger{
		candidates: []domain.Candidate{{ID: 1, Name: "A", Language: domain.LanguageZulu, Votes: 2, Bio: "b"}},
		users:      []domain.User{{ID: "x", Username: "alice", HasVoted: true}},
	}

	key, err := e.Export(context.Background(), ledger)
	require.NoError(t, err)
	require.Equal(t, "exports/ledger-1700000000.json", key)
	client.AssertExpectations(t)

	var doc Document
	require.NoError(t, json.Unmarshal(body, &doc))
	require.Equal(t, ledger.candidates, doc.Candidates)
	require.Equal(t, ledger.users, doc.Users)
	require.Equal(t, int64(2), doc.Results.TotalVotes)
	require.Equal(t, 100.0, doc.Results.ParticipationRate)
}

func TestExporter_NotConfigured(t *testing.T) {
	client := new(mockS3)
	e := NewExporter(client, "", "", zerolog.Nop())

	_, err := e.Export(context.Background(), fakeLedger{})
	require.ErrorIs(t, err, ErrNotConfigured)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestExporter_UploadFailure(t *testing.T) {
	client := new(mockS3)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	e := NewExporter(client, "b", "", zerolog.Nop())
	_, err := e.Export(context.Background(), fakeLedger{})
	require.ErrorContains(t, err, "access denied")
}

func TestExporter_Encrypted(t *testing.T) {
	hexKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptorFromHex(hexKey)
	require.NoError(t, err)

	client := new(mockS3)
	var body []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "ledger-1700000000.json.enc" &&
			aws.ToString(in.ContentType) == "application/octet-stream"
	})).Run(func(args mock.Arguments) {
		body, err = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
		require.NoError(t, err)
	}).Return(&s3.PutObjectOutput{}, nil)

	e := NewExporter(client, "eday-archive", "", zerolog.Nop()).WithEncryption(enc)
	e.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	ledger := fakeLedger{users: []domain.User{{ID: "secret-id", Username: "alice"}}}
	key, err := e.Export(context.Background(), ledger)
	require.NoError(t, err)
	require.Equal(t, "ledger-1700000000.json.enc", key)

	require.NotContains(t, string(body), "secret-id")

	plain, err := enc.Open(body)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(plain, &doc))
	require.Equal(t, ledger.users, doc.Users)
}
