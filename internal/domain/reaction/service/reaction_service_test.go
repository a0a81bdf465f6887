package service

import (
	"context"
	"sync"
	"testing"

	"vidhub/internal/domain/reaction/model"
	"vidhub/internal/domain/reaction/repository"
	videoModel "vidhub/internal/domain/video/model"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/identity"
	"vidhub/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReactionService(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	svc := NewReactionService(repository.NewReactionRepository(db), zap.NewNop())

	owner := testdb.SeedUser(t, db, "a", identity.RoleViewer)
	d := testdb.SeedUser(t, db, "d", identity.RoleViewer)
	v := testdb.SeedVideo(t, db, owner.ID, "v", "")
	caller := identity.New(d.ID, identity.RoleViewer)

	t.Run("missing identity", func(t *testing.T) {
		_, err := svc.SetReaction(ctx, identity.Identity{}, v.ID, true)
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	})

	t.Run("missing video", func(t *testing.T) {
		_, err := svc.SetReaction(ctx, caller, "11111111-1111-1111-1111-111111111111", true)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Contains(t, err.Error(), "setReaction")
	})

	t.Run("like then dislike", func(t *testing.T) {
		_, err := svc.SetReaction(ctx, caller, v.ID, true)
		require.NoError(t, err)
		counts, err := svc.SetReaction(ctx, caller, v.ID, false)
		require.NoError(t, err)
		assert.Equal(t, model.Counts{Likes: 0, Dislikes: 1}, *counts)
	})

	t.Run("malformed video id", func(t *testing.T) {
		for _, id := range []string{"", "v1", "' OR 1=1 --"} {
			_, err := svc.SetReaction(ctx, caller, id, true)
			assert.True(t, apperr.Is(err, apperr.KindInvalidArgument), "id %q: %v", id, err)
		}
	})

	t.Run("concurrent reactions keep counters in sync", func(t *testing.T) {
		const fans = 12
		target := testdb.SeedVideo(t, db, owner.ID, "busy", "")
		callers := make([]identity.Identity, fans)
		for i := range callers {
			u := testdb.SeedUser(t, db, "fan", identity.RoleViewer)
			callers[i] = identity.New(u.ID, identity.RoleViewer)
		}

		// 每个用户先赞，偶数用户随后改为踩
		var wg sync.WaitGroup
		for i, c := range callers {
			wg.Add(1)
			go func(i int, c identity.Identity) {
				defer wg.Done()
				_, err := svc.SetReaction(ctx, c, target.ID, true)
				assert.NoError(t, err)
				if i%2 == 0 {
					_, err = svc.SetReaction(ctx, c, target.ID, false)
					assert.NoError(t, err)
				}
			}(i, c)
		}
		wg.Wait()

		var likes, dislikes int64
		require.NoError(t, db.Model(&model.VideoLike{}).Where("video_id = ? AND is_like = ?", target.ID, true).Count(&likes).Error)
		require.NoError(t, db.Model(&model.VideoLike{}).Where("video_id = ? AND is_like = ?", target.ID, false).Count(&dislikes).Error)

		var stored videoModel.Video
		require.NoError(t, db.First(&stored, "id = ?", target.ID).Error)
		assert.Equal(t, int64(fans/2), likes)
		assert.Equal(t, int64(fans/2), dislikes)
		assert.Equal(t, likes, stored.LikesCount)
		assert.Equal(t, dislikes, stored.DislikesCount)
	})
}
