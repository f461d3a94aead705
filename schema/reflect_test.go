package schema

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type plainID struct {
	ID   int64
	Name string
}

func TestReflectInfersIDAsPrimaryKey(t *testing.T) {
	s, err := Reflect(reflect.TypeOf(plainID{}))
	require.NoError(t, err)
	pk, ok := s.PrimaryKeyColumn()
	require.True(t, ok)
	require.Equal(t, "ID", pk.Name)
}

type taggedPK struct {
	UID  int64 `db:",pk"`
	Name string
}

func TestReflectHonorsExplicitTag(t *testing.T) {
	s, err := Reflect(reflect.TypeOf(taggedPK{}))
	require.NoError(t, err)
	pk, ok := s.PrimaryKeyColumn()
	require.True(t, ok)
	require.Equal(t, "UID", pk.Name)
}

type doubleTaggedPK struct {
	UID  int64 `db:",pk"`
	SKU  int64 `db:",pk"`
	Name string
}

func TestReflectRejectsTwoTaggedPrimaryKeys(t *testing.T) {
	_, err := Reflect(reflect.TypeOf(doubleTaggedPK{}))
	require.True(t, errors.Is(err, ErrAmbiguousPrimaryKey))
}

type namedPKRecord struct {
	UID  int64
	Name string
}

func (namedPKRecord) PrimaryKeyField() string { return "UID" }

func TestReflectHonorsPrimaryKeyNamer(t *testing.T) {
	s, err := Reflect(reflect.TypeOf(namedPKRecord{}))
	require.NoError(t, err)
	pk, ok := s.PrimaryKeyColumn()
	require.True(t, ok)
	require.Equal(t, "UID", pk.Name)
}

type unresolvedNamedPKRecord struct {
	ID   int64
	Name string
}

func (unresolvedNamedPKRecord) PrimaryKeyField() string { return "DoesNotExist" }

func TestReflectRejectsPrimaryKeyNamerNamingUnknownField(t *testing.T) {
	_, err := Reflect(reflect.TypeOf(unresolvedNamedPKRecord{}))
	require.True(t, errors.Is(err, ErrAmbiguousPrimaryKey))
}

type conflictingPKRecord struct {
	ID   int64 `db:",pk"`
	UID  int64
	Name string
}

func (conflictingPKRecord) PrimaryKeyField() string { return "UID" }

func TestReflectRejectsTagAndNamerNamingDifferentFields(t *testing.T) {
	_, err := Reflect(reflect.TypeOf(conflictingPKRecord{}))
	require.True(t, errors.Is(err, ErrAmbiguousPrimaryKey))
}
