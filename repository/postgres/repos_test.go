package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

type affected int64

func (a affected) LastInsertId() (int64, error) { return 0, nil }
func (a affected) RowsAffected() (int64, error) { return int64(a), nil }

type recordingQuerier struct {
	queries  []string
	args     [][]interface{}
	affected int64
	getErr   error
}

func (q *recordingQuerier) record(query string, args []interface{}) {
	q.queries = append(q.queries, query)
	q.args = append(q.args, args)
}

func (q *recordingQuerier) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	q.record(query, args)
	return affected(q.affected), nil
}

func (q *recordingQuerier) GetContext(_ context.Context, _ interface{}, query string, args ...interface{}) error {
	q.record(query, args)
	return q.getErr
}

func (q *recordingQuerier) SelectContext(_ context.Context, _ interface{}, query string, args ...interface{}) error {
	q.record(query, args)
	return nil
}

func TestMessageSequencesRepo_Next(t *testing.T) {
	t.Parallel()

	q := new(recordingQuerier)
	repo := NewMessageSequencesRepo("message_sequences", q)
	_, err := repo.Next(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO message_sequences (emitter_address,sequence) VALUES ($1,$2) "+
		"ON CONFLICT (emitter_address) DO UPDATE SET sequence = message_sequences.sequence + 1, updated_at = NOW() RETURNING sequence - 1", q.queries[0])
}

func TestMessageSequencesRepo_PeekUnknownEmitter(t *testing.T) {
	t.Parallel()

	q := &recordingQuerier{getErr: db.ErrNotFound}
	repo := NewMessageSequencesRepo("message_sequences", q)
	seq, err := repo.Peek(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Zero(t, seq)
}

func TestCustodyVaultsRepo_Debit(t *testing.T) {
	t.Parallel()

	token := common.HexToHash("0xaa")
	q := &recordingQuerier{affected: 1}
	repo := NewCustodyVaultsRepo("custody_vaults", q)
	require.NoError(t, repo.Debit(context.Background(), token, 10))
	require.Equal(t, "UPDATE custody_vaults SET amount = amount - $1, updated_at = NOW() WHERE token = $2 AND amount >= $3", q.queries[0])
	// sq.Eq resolves driver.Valuer arguments, the hash arrives as bytes
	require.Equal(t, []interface{}{uint64(10), token.Bytes(), uint64(10)}, q.args[0])

	q.affected = 0
	require.ErrorIs(t, repo.Debit(context.Background(), token, 10), db.ErrInsufficientFunds)
}

func TestBalancesRepo_Credit(t *testing.T) {
	t.Parallel()

	q := new(recordingQuerier)
	repo := NewBalancesRepo("balances", q)
	require.NoError(t, repo.Credit(context.Background(), common.HexToHash("0xaa"), common.HexToHash("0x0a"), 5))
	require.Equal(t, "INSERT INTO balances (token,owner,amount) VALUES ($1,$2,$3) "+
		"ON CONFLICT (token, owner) DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = NOW()", q.queries[0])
}

func TestPostedVAAsRepo_MarkConsumed(t *testing.T) {
	t.Parallel()

	key := entity.VAAKey{EmitterChain: 2, EmitterAddress: common.HexToHash("0x01"), Sequence: 1}

	q := &recordingQuerier{affected: 1}
	require.NoError(t, NewPostedVAAsRepo("posted_vaas", q).MarkConsumed(context.Background(), key))
	require.Len(t, q.queries, 1)

	q = &recordingQuerier{}
	err := NewPostedVAAsRepo("posted_vaas", q).MarkConsumed(context.Background(), key)
	require.ErrorIs(t, err, db.ErrAlreadyConsumed)
	require.Len(t, q.queries, 2)

	q = &recordingQuerier{getErr: db.ErrNotFound}
	err = NewPostedVAAsRepo("posted_vaas", q).MarkConsumed(context.Background(), key)
	require.ErrorIs(t, err, db.ErrNotFound)
	require.NotErrorIs(t, err, db.ErrAlreadyConsumed)
}

func TestGuardianSetRow_Unpack(t *testing.T) {
	t.Parallel()

	a, b := common.HexToAddress("0x01"), common.HexToAddress("0x02")
	row := &guardianSetRow{RawKeys: packKeys([]common.Address{a, b})}
	row.Index = 3
	set, err := row.unpack()
	require.NoError(t, err)
	require.Equal(t, uint32(3), set.Index)
	require.Equal(t, []common.Address{a, b}, set.Keys)

	row.RawKeys[1] = row.RawKeys[1][:5]
	_, err = row.unpack()
	require.Error(t, err)
}
