package service_test

import (
	"context"
	"testing"

	"github.com/okian/pairrank/internal/adapters/repository"
	"github.com/okian/pairrank/internal/adapters/sessioncache"
	service "github.com/okian/pairrank/internal/app"
	"github.com/okian/pairrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	cache := sessioncache.NewInMemoryCache()
	t.Cleanup(func() { cache.Close() })

	svc := service.New(
		service.WithStore(repository.NewInMemoryStore()),
		service.WithCache(cache),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

// rankItem drives an interview to completion. The item is treated as
// deserving targetRank among the current peers: a probed peer wins
// whenever its index is at or above that rank.
func rankItem(ctx context.Context, svc *service.Service, username string, begin service.BeginResult, targetRank int) (service.ContinueResult, error) {
	probe := begin.Probe
	for {
		preferred := probe.Index >= targetRank
		res, err := svc.RecordAnswer(ctx, username, begin.Item.ID, probe.ItemID, probe.Index, preferred)
		if err != nil || res.Final != nil {
			return res, err
		}
		probe = res.Probe
	}
}

func TestAddItem(t *testing.T) {
	Convey("Given a running rating service", t, func() {
		svc := newService(t)
		ctx := context.Background()

		Convey("When the first item of a type is added", func() {
			res, err := svc.AddItem(ctx, "alice", "artist", "Radiohead")

			Convey("Then no interview starts and the item stays unrated", func() {
				So(err, ShouldBeNil)
				So(res.First, ShouldBeTrue)
				So(res.Probe, ShouldBeNil)
				So(res.Item.Value, ShouldBeNil)
			})

			Convey("And adding it again is rejected", func() {
				_, err := svc.AddItem(ctx, "alice", "artist", "radiohead")
				So(err, ShouldWrap, service.ErrItemExists)
			})

			Convey("And a second item opens an interview against the first", func() {
				second, err := svc.AddItem(ctx, "alice", "artist", "Portishead")
				So(err, ShouldBeNil)
				So(second.First, ShouldBeFalse)
				So(second.Probe, ShouldNotBeNil)
				So(second.Probe.ItemName, ShouldEqual, "Radiohead")
				So(second.Probe.Index, ShouldEqual, 0)
			})
		})

		Convey("When item types differ only by casing and whitespace", func() {
			_, err := svc.AddItem(ctx, "alice", "  Artist ", "a")
			So(err, ShouldBeNil)

			types, err := svc.ListTypes(ctx, "alice")
			So(err, ShouldBeNil)

			Convey("Then the type is normalized", func() {
				So(types, ShouldResemble, []string{"artist"})
			})
		})
	})
}

func TestInterview(t *testing.T) {
	Convey("Given a user with one unrated item", t, func() {
		svc := newService(t)
		ctx := context.Background()

		_, err := svc.AddItem(ctx, "alice", "artist", "b")
		So(err, ShouldBeNil)

		Convey("When a second item wins its single comparison", func() {
			begin, err := svc.AddItem(ctx, "alice", "artist", "c")
			So(err, ShouldBeNil)

			res, err := rankItem(ctx, svc, "alice", begin, 1)

			Convey("Then both items get endpoint values", func() {
				So(err, ShouldBeNil)
				So(len(res.Final), ShouldEqual, 2)
				So(res.Final[0].Name, ShouldEqual, "b")
				So(*res.Final[0].Value, ShouldEqual, 0)
				So(res.Final[1].Name, ShouldEqual, "c")
				So(*res.Final[1].Value, ShouldEqual, 100)
			})

			Convey("And the session is gone afterwards", func() {
				_, err := svc.RecordAnswer(ctx, "alice", begin.Item.ID, 0, 0, true)
				So(err, ShouldWrap, service.ErrNoSession)
			})

			Convey("And a third item slotted in the middle rescores everyone", func() {
				begin, err := svc.AddItem(ctx, "alice", "artist", "m")
				So(err, ShouldBeNil)

				final, err := rankItem(ctx, svc, "alice", begin, 1)
				So(err, ShouldBeNil)
				So(len(final.Final), ShouldEqual, 3)

				ratings, err := svc.ListRatings(ctx, "alice", "artist")
				So(err, ShouldBeNil)
				So(ratings[0].Name, ShouldEqual, "b")
				So(*ratings[0].Value, ShouldEqual, 0)
				So(ratings[1].Name, ShouldEqual, "m")
				So(*ratings[1].Value, ShouldEqual, 50)
				So(ratings[2].Name, ShouldEqual, "c")
				So(*ratings[2].Value, ShouldEqual, 100)
			})
		})

		Convey("When an answer references an unknown user or item", func() {
			begin, err := svc.AddItem(ctx, "alice", "artist", "c")
			So(err, ShouldBeNil)

			_, err = svc.RecordAnswer(ctx, "bob", begin.Item.ID, 0, 0, true)
			So(service.IsNotFound(err), ShouldBeTrue)

			_, err = svc.RecordAnswer(ctx, "alice", 999, 0, 0, true)
			So(service.IsNotFound(err), ShouldBeTrue)
		})
	})
}

func TestInterviewPlacement(t *testing.T) {
	Convey("Given a user with a four item ranking", t, func() {
		svc := newService(t)
		ctx := context.Background()
		names := []string{"a", "b", "c", "d"}

		for rank, name := range names {
			begin, err := svc.AddItem(ctx, "alice", "artist", name)
			So(err, ShouldBeNil)
			if begin.First {
				continue
			}
			_, err = rankItem(ctx, svc, "alice", begin, rank)
			So(err, ShouldBeNil)
		}

		Convey("Then the order matches insertion ranks with linear values", func() {
			ratings, err := svc.ListRatings(ctx, "alice", "artist")
			So(err, ShouldBeNil)
			So(len(ratings), ShouldEqual, 4)
			So(ratings[0].Name, ShouldEqual, "a")
			So(*ratings[0].Value, ShouldEqual, 0)
			So(*ratings[1].Value, ShouldEqual, 33.33)
			So(*ratings[2].Value, ShouldEqual, 66.67)
			So(ratings[3].Name, ShouldEqual, "d")
			So(*ratings[3].Value, ShouldEqual, 100)
		})

		Convey("And removing a middle item keeps the rest untouched", func() {
			removed, err := svc.RemoveItem(ctx, "alice", "artist", "B")
			So(err, ShouldBeNil)
			So(removed.Name, ShouldEqual, "b")

			ratings, err := svc.ListRatings(ctx, "alice", "artist")
			So(err, ShouldBeNil)
			So(len(ratings), ShouldEqual, 3)
			So(*ratings[1].Value, ShouldEqual, 66.67)
		})

		Convey("And removing an unknown item reports not found", func() {
			_, err := svc.RemoveItem(ctx, "alice", "artist", "zzz")
			So(service.IsNotFound(err), ShouldBeTrue)
		})

		Convey("And stats reflect the catalog", func() {
			stats := svc.GetStats(ctx)
			So(stats.ItemsTracked, ShouldEqual, 4)
			So(stats.ActiveSessions, ShouldEqual, 0)
		})
	})
}

func TestUsersAreIsolated(t *testing.T) {
	Convey("Given two users rating the same type", t, func() {
		svc := newService(t)
		ctx := context.Background()

		_, err := svc.AddItem(ctx, "alice", "artist", "a")
		So(err, ShouldBeNil)

		Convey("When bob adds his first artist", func() {
			res, err := svc.AddItem(ctx, "bob", "artist", "a")

			Convey("Then alice's catalog does not count as his peers", func() {
				So(err, ShouldBeNil)
				So(res.First, ShouldBeTrue)
			})
		})
	})
}

func TestResumeExistingInterview(t *testing.T) {
	Convey("Given an interview already in flight", t, func() {
		svc := newService(t)
		ctx := context.Background()

		_, err := svc.AddItem(ctx, "alice", "artist", "a")
		So(err, ShouldBeNil)
		begin, err := svc.AddItem(ctx, "alice", "artist", "b")
		So(err, ShouldBeNil)

		Convey("When an answer is recorded twice for the same probe", func() {
			res, err := svc.RecordAnswer(ctx, "alice", begin.Item.ID, begin.Probe.ItemID, begin.Probe.Index, false)
			So(err, ShouldBeNil)
			So(res.Final, ShouldNotBeNil)

			Convey("Then the replayed answer finds no session", func() {
				_, err := svc.RecordAnswer(ctx, "alice", begin.Item.ID, begin.Probe.ItemID, begin.Probe.Index, false)
				So(err, ShouldWrap, service.ErrNoSession)
			})
		})
	})
}
