package fs

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Chaos_Write_Fails_When_WriteFailRate_Is_One(t *testing.T) {
	dir := t.TempDir()
	chaos := NewChaos(NewReal(), ChaosConfig{WriteFailRate: 1, Rand: rand.New(rand.NewPCG(1, 1))})
	chaos.SetActive(true)

	f, err := chaos.Create(filepath.Join(dir, "f"))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("hello"))
	require.ErrorIs(t, err, errChaosInjected)
}

func Test_Chaos_Write_Succeeds_When_Inactive(t *testing.T) {
	dir := t.TempDir()
	chaos := NewChaos(NewReal(), ChaosConfig{WriteFailRate: 1})

	f, err := chaos.Create(filepath.Join(dir, "f"))
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func Test_Chaos_Sync_Fails_When_SyncFailRate_Is_One(t *testing.T) {
	dir := t.TempDir()
	chaos := NewChaos(NewReal(), ChaosConfig{SyncFailRate: 1})
	chaos.SetActive(true)

	f, err := chaos.Create(filepath.Join(dir, "f"))
	require.NoError(t, err)
	defer f.Close()

	require.ErrorIs(t, f.Sync(), errChaosInjected)
}
