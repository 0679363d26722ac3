package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watermelon-studio/studio-booking/internal/models"
)

func setupBlocks(t *testing.T) (BlockService, *fakeBlockRepo, func(commit bool)) {
	t.Helper()
	db, mock := newTestDB(t)
	repo := newFakeBlockRepo(db)
	svc := NewBlockService(repo, &fakeActivity{})

	expectTx := func(commit bool) {
		mock.ExpectBegin()
		if commit {
			mock.ExpectCommit()
		} else {
			mock.ExpectRollback()
		}
	}
	return svc, repo, expectTx
}

func TestCreateBlock_NormalizesIndividualBookingDate(t *testing.T) {
	svc, _, _ := setupBlocks(t)

	noon := time.Date(2026, time.September, 14, 12, 30, 5, 0, time.UTC)
	block, err := svc.CreateBlock(context.Background(), CreateBlockInput{
		Name:                  "Autumn Block",
		ItemCost:              6,
		IndividualBookingDate: noon,
		EventIDs:              []uint{1, 2},
	})
	require.NoError(t, err)

	want := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, block.IndividualBookingDate)
}

func TestCreateBlock_ZeroDateStaysZero(t *testing.T) {
	svc, _, _ := setupBlocks(t)

	block, err := svc.CreateBlock(context.Background(), CreateBlockInput{Name: "Autumn Block", ItemCost: 6})
	require.NoError(t, err)
	assert.True(t, block.IndividualBookingDate.IsZero())
}

func TestOpenBlock_CascadesInOneTransaction(t *testing.T) {
	svc, repo, expectTx := setupBlocks(t)
	repo.blocks[50] = &models.Block{ID: 50, Name: "Autumn Block"}
	repo.members[50] = []models.Event{
		{ID: 1, Name: "Pole Conditioning"},
		{ID: 2, Name: "Pole Tricks"},
	}
	expectTx(true)

	block, err := svc.OpenBlock(context.Background(), 50)
	require.NoError(t, err)

	assert.True(t, block.BookingOpen)
	assert.Equal(t, []uint{50}, repo.setOpenCalls)
	assert.Equal(t, []uint{50}, repo.openMemberCalls)
	for _, e := range repo.members[50] {
		assert.True(t, e.BookingOpen, "member event %d should be open", e.ID)
	}
}

func TestOpenBlock_NotFound(t *testing.T) {
	svc, _, _ := setupBlocks(t)

	_, err := svc.OpenBlock(context.Background(), 99)
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestUpdateBlock_OpeningCascades(t *testing.T) {
	svc, repo, expectTx := setupBlocks(t)
	repo.blocks[50] = &models.Block{ID: 50, Name: "Autumn Block", BookingOpen: false}
	repo.members[50] = []models.Event{{ID: 1}}
	expectTx(true)

	_, err := svc.UpdateBlock(context.Background(), 50, CreateBlockInput{
		Name:        "Autumn Block",
		ItemCost:    5.5,
		BookingOpen: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []uint{50}, repo.openMemberCalls)
}

func TestUpdateBlock_AlreadyOpenNoCascade(t *testing.T) {
	svc, repo, _ := setupBlocks(t)
	repo.blocks[50] = &models.Block{ID: 50, Name: "Autumn Block", BookingOpen: true}

	_, err := svc.UpdateBlock(context.Background(), 50, CreateBlockInput{
		Name:        "Autumn Block",
		BookingOpen: true,
		EventIDs:    []uint{3, 4},
	})
	require.NoError(t, err)

	assert.Empty(t, repo.openMemberCalls)
	assert.Equal(t, [][]uint{{3, 4}}, repo.replacedEvents)
}
