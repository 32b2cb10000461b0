package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreFixture struct {
	svc      ScoreService
	scores   *fakeScores
	prizes   *fakePrizes
	members  *fakeMembers
	strategy *stubStrategy
	events   *kafka.MemoryPublisher
}

func newScoreFixture() *scoreFixture {
	games := catalogue()
	instances := newFakeGameInstances(games, &domain.GameInstance{
		ID: instanceA, GameID: wheelGameID, CompanyID: companyA, Name: "Wheel", Slug: "wheel", IsActive: true,
		Config: map[string]interface{}{
			"prizeList": []interface{}{
				map[string]interface{}{"name": "100 Points", "type": "points", "value": float64(100)},
				map[string]interface{}{"name": "Try again"},
			},
		},
	})

	f := &scoreFixture{
		scores:   &fakeScores{},
		prizes:   newFakePrizes(),
		members:  newFakeMembers(member("m-1", companyA, 0), member("m-2", companyB, 0)),
		strategy: &stubStrategy{result: StrategyResult{Status: domain.PrizeStatusFulfilled, Note: "credited"}},
		events:   kafka.NewMemoryPublisher(),
	}
	prizes := NewMemberPrizeService(f.prizes, f.members, NewPrizeTypeService(newFakePrizeTypes(pointsType())), f.strategy, f.events)
	f.svc = NewScoreService(f.scores, f.members, NewGameInstanceService(instances, games, newFakeCompanies()), prizes, f.events)
	return f
}

func topics(events *kafka.MemoryPublisher) []string {
	out := make([]string, 0)
	for _, e := range events.Events() {
		out = append(out, e.Topic)
	}
	return out
}

func TestSubmitScore_AwardsPrizeFromPrizeList(t *testing.T) {
	f := newScoreFixture()

	resp, err := f.svc.Submit(context.Background(), Player{MemberID: "m-1"}, &dto.SubmitScoreRequest{
		InstanceSlug: "wheel",
		Score:        5,
		Metadata:     map[string]interface{}{"prizeIndex": float64(0)},
	})
	require.NoError(t, err)
	require.Len(t, f.scores.rows, 1)
	assert.Equal(t, instanceA, resp.Score.InstanceID)

	require.NotNil(t, resp.Prize)
	assert.Equal(t, "100 Points", resp.Prize.PrizeName)
	assert.Equal(t, "points", resp.Prize.PrizeType)
	assert.Equal(t, float64(100), resp.Prize.PrizeValue)
	assert.Equal(t, domain.PrizeStatusFulfilled, resp.Prize.Status)
	assert.Equal(t, resp.Score.ID, *resp.Prize.PlayAttemptID)
	assert.Equal(t, "0", *resp.Prize.PrizeID)
	assert.Equal(t, "100 Points", resp.Prize.Metadata["config"].(map[string]interface{})["name"])
	assert.Len(t, f.strategy.ran, 1)

	assert.Equal(t, []string{dto.TopicPrizeAwarded, dto.TopicScoreSubmitted}, topics(f.events))
	submitted := f.events.Events()[1].Event.(*dto.ScoreSubmittedEvent)
	assert.Equal(t, resp.Prize.ID, submitted.PrizeID)
	assert.Equal(t, companyA, submitted.CompanyID)
}

func TestSubmitScore_ScoreIsTheFallbackValue(t *testing.T) {
	f := newScoreFixture()

	resp, err := f.svc.Submit(context.Background(), Player{MemberID: "m-1"}, &dto.SubmitScoreRequest{
		InstanceSlug: "wheel",
		Score:        42,
		Metadata:     map[string]interface{}{"prizeIndex": float64(1)},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Prize)
	assert.Equal(t, "Try again", resp.Prize.PrizeName)
	assert.Equal(t, float64(42), resp.Prize.PrizeValue)
}

func TestSubmitScore_NoPrize(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]interface{}
	}{
		{"no prize index", nil},
		{"marked lost", map[string]interface{}{"prizeIndex": float64(0), "isLose": true}},
		{"index outside the list", map[string]interface{}{"prizeIndex": float64(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScoreFixture()

			resp, err := f.svc.Submit(context.Background(), Player{MemberID: "m-1"}, &dto.SubmitScoreRequest{
				InstanceSlug: "wheel", Score: 10, Metadata: tt.metadata,
			})
			require.NoError(t, err)
			assert.Nil(t, resp.Prize)
			assert.Len(t, f.scores.rows, 1)
			assert.Empty(t, f.prizes.rows)
			assert.Equal(t, []string{dto.TopicScoreSubmitted}, topics(f.events))
		})
	}
}

func TestSubmitScore_ImpersonatedPlayIsNotRecorded(t *testing.T) {
	f := newScoreFixture()

	resp, err := f.svc.Submit(context.Background(), Player{MemberID: "m-1", Impersonated: true}, &dto.SubmitScoreRequest{
		InstanceSlug: "wheel",
		Score:        5,
		Metadata:     map[string]interface{}{"prizeIndex": float64(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Score.Score)
	assert.Nil(t, resp.Prize)
	assert.Empty(t, f.scores.rows)
	assert.Empty(t, f.prizes.rows)
	assert.Empty(t, f.strategy.ran)
	assert.Empty(t, f.events.Events())
}

func TestSubmitScore_Rejections(t *testing.T) {
	f := newScoreFixture()
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, Player{MemberID: "m-2"}, &dto.SubmitScoreRequest{InstanceSlug: "wheel"})
	assert.True(t, errors.Is(err, ErrGameInstanceNotFound), "another company's instance")

	_, err = f.svc.Submit(ctx, Player{MemberID: "ghost"}, &dto.SubmitScoreRequest{InstanceSlug: "wheel"})
	assert.True(t, errors.Is(err, ErrMemberNotFound))

	f.members.rows["m-1"].IsActive = false
	_, err = f.svc.Submit(ctx, Player{MemberID: "m-1"}, &dto.SubmitScoreRequest{InstanceSlug: "wheel"})
	assert.True(t, errors.Is(err, ErrMemberInactive))

	assert.Empty(t, f.scores.rows)
}

func TestListMyScores(t *testing.T) {
	f := newScoreFixture()
	ctx := context.Background()

	for _, score := range []int64{1, 2, 3} {
		_, err := f.svc.Submit(ctx, Player{MemberID: "m-1"}, &dto.SubmitScoreRequest{InstanceSlug: "wheel", Score: score})
		require.NoError(t, err)
	}

	scores, err := f.svc.ListMine(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, int64(3), scores[0].Score)

	scores, err = f.svc.ListMine(ctx, "m-2")
	require.NoError(t, err)
	assert.Empty(t, scores)
}
