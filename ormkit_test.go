package ormkit_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ormkit/ormkit"
	"github.com/ormkit/ormkit/sqldriver"
)

func openTestDB(t *testing.T) *ormkit.Database {
	t.Helper()
	ctx := context.Background()
	db, err := ormkit.Open(ctx, sqldriver.NewSQLite(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type widget struct {
	ID   int64  `db:",pk"`
	Name string
}

func (widget) TableName() string { return "widgets" }

func TestBasicInsertAndSelect(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[widget](ctx, db, ormkit.CreatePolicy{}))

	require.NoError(t, ormkit.Table[widget](db).Insert(ctx, widget{ID: 1, Name: "A"}, widget{ID: 2, Name: "B"}))

	got, err := ormkit.Table[widget](db).Where(ormkit.Eq[widget]("ID", int64(2))).Select(ctx)
	require.NoError(t, err)
	require.Equal(t, []widget{{ID: 2, Name: "B"}}, got)
}

type parent struct {
	ID       int64  `db:",pk"`
	Last     string
	Children []child
}

func (parent) TableName() string { return "parents" }

type child struct {
	ID       int64 `db:",pk"`
	ParentID int64
	Code     int64
}

func (child) TableName() string { return "children" }

func TestJoinWithPerSideOrdering(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[parent](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[child](ctx, db, ormkit.CreatePolicy{}))

	require.NoError(t, ormkit.Table[parent](db).Insert(ctx,
		parent{ID: 1, Last: "Lars"},
		parent{ID: 2, Last: "Astrid"},
	))
	require.NoError(t, ormkit.Table[child](db).Insert(ctx,
		child{ID: 1, ParentID: 1, Code: 12},
		child{ID: 2, ParentID: 1, Code: 7},
		child{ID: 3, ParentID: 1, Code: 12},
	))

	got, err := ormkit.Table[parent](db).
		Order("Last", false).
		Join("Children", "ID", "ParentID").
		Order("Code", true).
		Where(ormkit.And(
			ormkit.Eq[parent]("Last", "Lars"),
			ormkit.Eq[child]("Code", int64(12)),
		)).
		Select(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Lars", got[0].Last)
	require.Len(t, got[0].Children, 2)
	for _, c := range got[0].Children {
		require.Equal(t, int64(12), c.Code)
	}
}

func TestJoinBucketsDistinctIntegerKeys(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[parent](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[child](ctx, db, ormkit.CreatePolicy{}))

	require.NoError(t, ormkit.Table[parent](db).Insert(ctx,
		parent{ID: 1, Last: "Lars"},
		parent{ID: 2, Last: "Astrid"},
	))
	require.NoError(t, ormkit.Table[child](db).Insert(ctx,
		child{ID: 1, ParentID: 1, Code: 12},
		child{ID: 2, ParentID: 2, Code: 7},
	))

	got, err := ormkit.Table[parent](db).
		Order("ID", false).
		Join("Children", "ID", "ParentID").
		Select(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[int64][]child{}
	for _, p := range got {
		byID[p.ID] = p.Children
	}
	require.Len(t, byID[1], 1)
	require.Equal(t, int64(1), byID[1][0].ID)
	require.Len(t, byID[2], 1)
	require.Equal(t, int64(2), byID[2][0].ID)
}

type tag struct {
	ID   int64 `db:",pk"`
	Name string
}

func (tag) TableName() string { return "tags" }

type itemTag struct {
	ID     int64 `db:",pk"`
	ItemID int64
	TagID  int64
}

func (itemTag) TableName() string { return "item_tags" }

type item struct {
	ID   int64 `db:",pk"`
	Name string
	Tags []tag
}

func (item) TableName() string { return "items" }

func TestPivotJoinAttributesChildrenByLinkTable(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[item](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[tag](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[itemTag](ctx, db, ormkit.CreatePolicy{}))

	require.NoError(t, ormkit.Table[item](db).Insert(ctx,
		item{ID: 1, Name: "Widget"},
		item{ID: 2, Name: "Gadget"},
	))
	require.NoError(t, ormkit.Table[tag](db).Insert(ctx,
		tag{ID: 10, Name: "red"},
		tag{ID: 20, Name: "blue"},
	))
	// item 1 only has "red" (ID 10); item 2 has both "red" and "blue".
	// A scheme that matched children to parents by raw key equality
	// (rather than via the pivot rows) would mis-attribute these, since
	// tag IDs 10/20 bear no relation to item IDs 1/2.
	require.NoError(t, ormkit.Table[itemTag](db).Insert(ctx,
		itemTag{ID: 1, ItemID: 1, TagID: 10},
		itemTag{ID: 2, ItemID: 2, TagID: 10},
		itemTag{ID: 3, ItemID: 2, TagID: 20},
	))

	got, err := ormkit.Table[item](db).
		Order("ID", false).
		PivotJoin("Tags", reflect.TypeFor[itemTag](), "ID", "ItemID", "ID", "TagID").
		Select(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	names := func(tags []tag) []string {
		out := make([]string, len(tags))
		for i, tg := range tags {
			out[i] = tg.Name
		}
		return out
	}
	require.ElementsMatch(t, []string{"red"}, names(got[0].Tags))
	require.ElementsMatch(t, []string{"red", "blue"}, names(got[1].Tags))
}

func TestPivotJoinDedupesDuplicateLinkRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[item](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[tag](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[itemTag](ctx, db, ormkit.CreatePolicy{}))

	require.NoError(t, ormkit.Table[item](db).Insert(ctx, item{ID: 1, Name: "Widget"}))
	require.NoError(t, ormkit.Table[tag](db).Insert(ctx, tag{ID: 10, Name: "red"}))
	// Two link rows for the same (ItemID, TagID) pair. The pivot join
	// must still attribute "red" to item 1 exactly once.
	require.NoError(t, ormkit.Table[itemTag](db).Insert(ctx,
		itemTag{ID: 1, ItemID: 1, TagID: 10},
		itemTag{ID: 2, ItemID: 1, TagID: 10},
	))

	got, err := ormkit.Table[item](db).
		PivotJoin("Tags", reflect.TypeFor[itemTag](), "ID", "ItemID", "ID", "TagID").
		Select(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Tags, 1)
	require.Equal(t, "red", got[0].Tags[0].Name)
}

type widgetV2 struct {
	ID      int64  `db:",pk"`
	Name    string
	Integer int64
}

func (widgetV2) TableName() string { return "widgets" }

func TestUpdateWithSetKeys(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[widgetV2](ctx, db, ormkit.CreatePolicy{}))

	require.NoError(t, ormkit.Table[widgetV2](db).Insert(ctx, widgetV2{ID: 2000, Name: "N", Integer: 40}))

	n, err := ormkit.Table[widgetV2](db).
		Where(ormkit.Eq[widgetV2]("ID", int64(2000))).
		Update(ctx, widgetV2{ID: 2000, Name: "N2", Integer: 41}, "Name")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := ormkit.Table[widgetV2](db).Where(ormkit.Eq[widgetV2]("ID", int64(2000))).OnlyOne(ctx)
	require.NoError(t, err)
	require.Equal(t, "N2", got.Name)
	require.Equal(t, int64(40), got.Integer)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[widget](ctx, db, ormkit.CreatePolicy{}))

	before, err := ormkit.Table[widget](db).Count(ctx)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.Transaction(ctx, func(ctx context.Context) error {
		if err := ormkit.Table[widget](db).Insert(ctx, widget{ID: 99, Name: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := ormkit.Table[widget](db).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

type blobRow struct {
	ID   int64 `db:",pk"`
	Blob *[]byte
}

func (blobRow) TableName() string { return "blob_rows" }

func TestNullCountAndEmptyVsAbsentChildren(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[blobRow](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[parent](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Create[child](ctx, db, ormkit.CreatePolicy{}))

	present := []byte("x")
	require.NoError(t, ormkit.Table[blobRow](db).Insert(ctx,
		blobRow{ID: 1, Blob: nil},
		blobRow{ID: 2, Blob: &present},
		blobRow{ID: 3, Blob: nil},
	))
	nullCount, err := ormkit.Table[blobRow](db).Where(ormkit.IsNull[blobRow]("Blob")).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), nullCount)

	require.NoError(t, ormkit.Table[parent](db).Insert(ctx, parent{ID: 10, Last: "Solo"}))

	loaded, err := ormkit.Table[parent](db).Where(ormkit.Eq[parent]("ID", int64(10))).First(ctx)
	require.NoError(t, err)
	require.Nil(t, loaded.Children)

	withJoin, err := ormkit.Table[parent](db).
		Join("Children", "ID", "ParentID").
		Where(ormkit.Eq[parent]("ID", int64(10))).
		First(ctx)
	require.NoError(t, err)
	require.NotNil(t, withJoin.Children)
	require.Len(t, withJoin.Children, 0)
}

func TestDeleteThenCountIsZero(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, ormkit.Create[widget](ctx, db, ormkit.CreatePolicy{}))
	require.NoError(t, ormkit.Table[widget](db).Insert(ctx, widget{ID: 1, Name: "A"}))

	pred := ormkit.Eq[widget]("ID", int64(1))
	_, err := ormkit.Table[widget](db).Where(pred).Delete(ctx)
	require.NoError(t, err)

	n, err := ormkit.Table[widget](db).Where(ormkit.Eq[widget]("ID", int64(1))).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}
