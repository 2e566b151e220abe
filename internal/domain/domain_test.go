package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    Language
		wantErr bool
	}{
		{input: "Tswana", want: LanguageTswana},
		{input: "zulu", want: LanguageZulu},
		{input: "  ZULU ", want: LanguageZulu},
		{input: "Xhosa", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidateCandidateInput(t *testing.T) {
	tests := []struct {
		name     string
		cname    string
		language Language
		bio      string
		wantErr  bool
	}{
		{name: "valid", cname: "Lerato", language: LanguageTswana, bio: "Nurse"},
		{name: "empty name", cname: "", language: LanguageTswana, bio: "Nurse", wantErr: true},
		{name: "blank bio", cname: "Lerato", language: LanguageZulu, bio: "   ", wantErr: true},
		{name: "unknown language", cname: "Lerato", language: Language("Sotho"), bio: "Nurse", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidateInput(tt.cname, tt.language, tt.bio)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestInitialCandidates(t *testing.T) {
	roster := InitialCandidates()
	require.Len(t, roster, 4)
	for i, c := range roster {
		require.Equal(t, int64(i+1), c.ID)
		require.Zero(t, c.Votes)
		require.True(t, c.Language.IsValid())
		require.NotEmpty(t, c.Bio)
	}

	// Callers get their own copy.
	roster[0].Votes = 10
	require.Zero(t, InitialCandidates()[0].Votes)
}

func TestVoteRejectedError(t *testing.T) {
	err := fmt.Errorf("cast vote: %w", NewVoteRejected(RejectAlreadyVoted))

	require.ErrorIs(t, err, ErrVoteRejected)
	require.False(t, errors.Is(err, ErrInvalidInput))

	reason, ok := RejectReasonOf(err)
	require.True(t, ok)
	require.Equal(t, RejectAlreadyVoted, reason)

	_, ok = RejectReasonOf(ErrInvalidInput)
	require.False(t, ok)
}

func TestUser_CanVote(t *testing.T) {
	voter := NewVoter("id-1", "alice")
	if !voter.CanVote() {
		t.Error("new voter should be able to vote")
	}

	voter.HasVoted = true
	if voter.CanVote() {
		t.Error("voter who has voted should not be able to vote")
	}

	if NewAdmin("root").CanVote() {
		t.Error("admin should not be able to vote")
	}
}

func TestComputeResults(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Name: "A", Votes: 3},
		{ID: 2, Name: "B", Votes: 1},
		{ID: 3, Name: "C", Votes: 3},
	}
	users := []User{
		{ID: "u1", HasVoted: true},
		{ID: "u2", HasVoted: true},
		{ID: "u3"},
	}

	r := ComputeResults(candidates, users)

	require.Equal(t, int64(7), r.TotalVotes)
	require.Equal(t, 3, r.RegisteredVoters)
	require.Equal(t, 2, r.VotersVoted)
	require.Equal(t, 66.7, r.ParticipationRate)
	require.Equal(t, []int64{1, 3}, r.Leaders)
	require.Len(t, r.Standings, 3)
	require.Equal(t, 42.9, r.Standings[0].Share)
	require.Equal(t, 14.3, r.Standings[1].Share)
}

func TestComputeResults_Empty(t *testing.T) {
	r := ComputeResults(InitialCandidates(), nil)

	require.Zero(t, r.TotalVotes)
	require.Zero(t, r.ParticipationRate)
	require.Empty(t, r.Leaders)
	for _, s := range r.Standings {
		require.Zero(t, s.Share)
	}
}
