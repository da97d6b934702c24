package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/nathanyu/matching-engine/internal/domain"
)

const (
	orderKeyPrefix = "order:"
	buySideKey     = "buy_orders"
	sellSideKey    = "sell_orders"
)

// Redis is an OrderStore + BookIndex on a Redis server.
//
// Orders live as JSON values under order:{id}. Each side of the book is a
// sorted set scored by price (negated for bids so the best bid ranks
// first). The member is the zero-padded arrival sequence: equal scores
// tie-break lexicographically in Redis, so equal prices resolve by arrival
// order. Two hashes per side map arrival sequence to order id and back,
// which is the separate arrival-order lookup the index contract calls for.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis backend on the given client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func sideKey(side domain.Side) string {
	if side == domain.SideBuy {
		return buySideKey
	}
	return sellSideKey
}

// score derives the sorted-set rank from the price. Bids are negated so
// ZRANGE index 0 returns the highest bid / lowest ask on either side.
func score(side domain.Side, price int64) float64 {
	if side == domain.SideBuy {
		return -float64(price)
	}
	return float64(price)
}

func priceFromScore(side domain.Side, s float64) int64 {
	if side == domain.SideBuy {
		return -int64(s)
	}
	return int64(s)
}

// member is the zero-padded arrival sequence, fixed width so lexicographic
// order equals numeric order.
func member(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}

func arrivalsKey(side domain.Side) string { return sideKey(side) + ":arrivals" }
func refsKey(side domain.Side) string     { return sideKey(side) + ":refs" }

// Get loads the order JSON from order:{id}.
func (r *Redis) Get(ctx context.Context, id uint64) (*domain.Order, error) {
	val, err := r.client.Get(ctx, orderKeyPrefix+strconv.FormatUint(id, 10)).Result()
	if err == redis.Nil {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, storeErr("failed to get order from redis", err)
	}

	var order domain.Order
	if err := json.Unmarshal([]byte(val), &order); err != nil {
		return nil, storeErr("failed to decode order", err)
	}
	return &order, nil
}

// Put writes the order JSON to order:{id}.
func (r *Redis) Put(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return storeErr("failed to encode order", err)
	}
	if err := r.client.Set(ctx, orderKeyPrefix+strconv.FormatUint(order.ID, 10), data, 0).Err(); err != nil {
		return storeErr("failed to put order in redis", err)
	}
	return nil
}

// PutAll writes all orders in one MULTI/EXEC transaction so both sides of a
// pairing persist together.
func (r *Redis) PutAll(ctx context.Context, orders ...*domain.Order) error {
	payloads := make(map[string][]byte, len(orders))
	for _, o := range orders {
		data, err := json.Marshal(o)
		if err != nil {
			return storeErr("failed to encode order", err)
		}
		payloads[orderKeyPrefix+strconv.FormatUint(o.ID, 10)] = data
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, data := range payloads {
			pipe.Set(ctx, key, data, 0)
		}
		return nil
	})
	if err != nil {
		return storeErr("failed to put orders in redis", err)
	}
	return nil
}

// Insert adds the entry to the side's sorted set and arrival hashes.
func (r *Redis) Insert(ctx context.Context, side domain.Side, e Entry) error {
	m := member(e.Seq)
	idStr := strconv.FormatUint(e.OrderID, 10)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, sideKey(side), redis.Z{Score: score(side, e.Price), Member: m})
		pipe.HSet(ctx, arrivalsKey(side), m, idStr)
		pipe.HSet(ctx, refsKey(side), idStr, m)
		return nil
	})
	if err != nil {
		return storeErr("failed to insert index entry in redis", err)
	}
	return nil
}

// PeekBest reads the first-ranked member of the side's sorted set.
func (r *Redis) PeekBest(ctx context.Context, side domain.Side) (Entry, bool, error) {
	zs, err := r.client.ZRangeWithScores(ctx, sideKey(side), 0, 0).Result()
	if err != nil {
		return Entry{}, false, storeErr("failed to peek best from redis", err)
	}
	if len(zs) == 0 {
		return Entry{}, false, nil
	}

	e, err := r.entryFromZ(ctx, side, zs[0])
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Remove deletes the order's entry from the side, resolving the arrival
// sequence through the reverse hash.
func (r *Redis) Remove(ctx context.Context, side domain.Side, orderID uint64) error {
	idStr := strconv.FormatUint(orderID, 10)

	m, err := r.client.HGet(ctx, refsKey(side), idStr).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return storeErr("failed to resolve index entry in redis", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, sideKey(side), m)
		pipe.HDel(ctx, arrivalsKey(side), m)
		pipe.HDel(ctx, refsKey(side), idStr)
		return nil
	})
	if err != nil {
		return storeErr("failed to remove index entry from redis", err)
	}
	return nil
}

// Entries returns the whole side in rank order.
func (r *Redis) Entries(ctx context.Context, side domain.Side) ([]Entry, error) {
	zs, err := r.client.ZRangeWithScores(ctx, sideKey(side), 0, -1).Result()
	if err != nil {
		return nil, storeErr("failed to range index in redis", err)
	}
	if len(zs) == 0 {
		return nil, nil
	}

	arrivals, err := r.client.HGetAll(ctx, arrivalsKey(side)).Result()
	if err != nil {
		return nil, storeErr("failed to load arrivals from redis", err)
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		m, _ := z.Member.(string)
		idStr, ok := arrivals[m]
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return nil, storeErr("failed to parse order id", err)
		}
		seq, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, storeErr("failed to parse arrival sequence", err)
		}
		entries = append(entries, Entry{OrderID: id, Price: priceFromScore(side, z.Score), Seq: seq})
	}
	return entries, nil
}

func (r *Redis) entryFromZ(ctx context.Context, side domain.Side, z redis.Z) (Entry, error) {
	m, _ := z.Member.(string)

	idStr, err := r.client.HGet(ctx, arrivalsKey(side), m).Result()
	if err != nil {
		return Entry{}, storeErr("failed to resolve arrival in redis", err)
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return Entry{}, storeErr("failed to parse order id", err)
	}
	seq, err := strconv.ParseUint(m, 10, 64)
	if err != nil {
		return Entry{}, storeErr("failed to parse arrival sequence", err)
	}
	return Entry{OrderID: id, Price: priceFromScore(side, z.Score), Seq: seq}, nil
}
