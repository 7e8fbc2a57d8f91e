package sessioncache_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/pairrank/internal/adapters/sessioncache"
	"github.com/okian/pairrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newSession(itemID int64) *model.Session {
	return &model.Session{
		Item: model.Rateable{ID: itemID, UserID: 1, Type: "artist", Name: "a"},
		Peers: []model.Rateable{
			{ID: 2, UserID: 1, Type: "artist", Name: "b"},
		},
	}
}

func TestInMemoryCache(t *testing.T) {
	Convey("Given an in-memory session cache", t, func() {
		cache := sessioncache.NewInMemoryCache()
		defer cache.Close()

		ctx := context.Background()
		key := sessioncache.Key{UserID: 1, ItemID: 10}

		Convey("When a session is stored", func() {
			stored, err := cache.Store(ctx, key, newSession(10))
			So(err, ShouldBeNil)
			So(stored, ShouldBeTrue)

			Convey("Then it can be retrieved", func() {
				got, ok, err := cache.Get(ctx, key)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.Item.ID, ShouldEqual, 10)
				So(cache.Size(ctx), ShouldEqual, 1)
			})

			Convey("And storing again for the same key is a silent no-op", func() {
				second := newSession(10)
				second.Outcomes = []model.Outcome{{ItemID: 2, Index: 0, Preferred: true}}

				stored, err := cache.Store(ctx, key, second)
				So(err, ShouldBeNil)
				So(stored, ShouldBeFalse)

				got, ok, _ := cache.Get(ctx, key)
				So(ok, ShouldBeTrue)
				So(got.Outcomes, ShouldBeEmpty)
				So(cache.Size(ctx), ShouldEqual, 1)
			})

			Convey("And mutating the returned session does not touch the cache until Update", func() {
				got, _, _ := cache.Get(ctx, key)
				got.Outcomes = append(got.Outcomes, model.Outcome{ItemID: 2, Index: 0, Preferred: false})

				fresh, _, _ := cache.Get(ctx, key)
				So(fresh.Outcomes, ShouldBeEmpty)

				So(cache.Update(ctx, key, got), ShouldBeNil)
				updated, _, _ := cache.Get(ctx, key)
				So(len(updated.Outcomes), ShouldEqual, 1)
			})

			Convey("And removing evicts it, repeatedly and safely", func() {
				So(cache.Remove(ctx, key), ShouldBeNil)
				_, ok, _ := cache.Get(ctx, key)
				So(ok, ShouldBeFalse)
				So(cache.Size(ctx), ShouldEqual, 0)

				// Eviction must be idempotent.
				So(cache.Remove(ctx, key), ShouldBeNil)
				So(cache.Size(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a session outlives its TTL", func() {
			cache = sessioncache.NewInMemoryCache(
				sessioncache.WithTTL(10*time.Millisecond),
				sessioncache.WithSweepInterval(5*time.Millisecond),
			)
			defer cache.Close()

			_, err := cache.Store(ctx, key, newSession(10))
			So(err, ShouldBeNil)

			Convey("Then it reads as absent once expired", func() {
				time.Sleep(25 * time.Millisecond)
				_, ok, err := cache.Get(ctx, key)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("And the sweeper eventually reaps it", func() {
				So(func() bool {
					deadline := time.Now().Add(500 * time.Millisecond)
					for time.Now().Before(deadline) {
						if cache.Size(ctx) == 0 {
							return true
						}
						time.Sleep(5 * time.Millisecond)
					}
					return false
				}(), ShouldBeTrue)
			})

			Convey("And a dead entry can be replaced by a new session", func() {
				time.Sleep(25 * time.Millisecond)
				stored, err := cache.Store(ctx, key, newSession(10))
				So(err, ShouldBeNil)
				So(stored, ShouldBeTrue)
			})
		})
	})
}
