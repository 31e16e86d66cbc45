package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
)

// RedisIdentityRepository implements IdentityStore on Redis.
//
// Layout, with the default "idm" prefix:
//
//	idm:identity:<realm>:<username>   hash {id, realm, username, created_at}
//	idm:identity:<id>:attr:<name>     set of attribute values
//	idm:identity:<id>:attrs           set of attribute names
type RedisIdentityRepository struct {
	pool   *redis.Pool
	prefix string
}

// NewRedisIdentityRepository creates a new Redis identity repository
func NewRedisIdentityRepository(pool *redis.Pool, prefix string) *RedisIdentityRepository {
	if prefix == "" {
		prefix = "idm"
	}
	return &RedisIdentityRepository{pool: pool, prefix: prefix}
}

func (r *RedisIdentityRepository) principalKey(realm, username string) string {
	return fmt.Sprintf("%s:identity:%s:%s", r.prefix, realm, username)
}

func (r *RedisIdentityRepository) attributeKey(id uuid.UUID, name string) string {
	return fmt.Sprintf("%s:identity:%s:attr:%s", r.prefix, id, name)
}

func (r *RedisIdentityRepository) attributeNamesKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:identity:%s:attrs", r.prefix, id)
}

// FindIdentityByUsername resolves a username within a realm
func (r *RedisIdentityRepository) FindIdentityByUsername(ctx context.Context, realm, username string) (PrincipalRef, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return PrincipalRef{}, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	realm = NormalizeRealm(realm)
	fields, err := redis.StringMap(redis.DoContext(conn, ctx, "HGETALL", r.principalKey(realm, username)))
	if err != nil {
		return PrincipalRef{}, fmt.Errorf("failed to read identity: %w", err)
	}
	if len(fields) == 0 {
		return PrincipalRef{}, ErrIdentityNotFound
	}

	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return PrincipalRef{}, fmt.Errorf("invalid identity id %q: %w", fields["id"], err)
	}
	return PrincipalRef{ID: id, Realm: realm, Username: username}, nil
}

// GetAttributes reads every requested attribute set in one pipelined round trip
func (r *RedisIdentityRepository) GetAttributes(ctx context.Context, principal PrincipalRef, names []string) (AttributeValues, error) {
	if len(names) == 0 {
		return AttributeValues{}, nil
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	for _, name := range names {
		if err := conn.Send("SMEMBERS", r.attributeKey(principal.ID, name)); err != nil {
			return nil, fmt.Errorf("failed to queue attribute read: %w", err)
		}
	}
	replies, err := redis.Values(redis.DoContext(conn, ctx, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes: %w", err)
	}
	if len(replies) != len(names) {
		return nil, fmt.Errorf("expected %d attribute replies, got %d", len(names), len(replies))
	}

	raw := make(map[string][]string, len(names))
	for i, reply := range replies {
		members, err := redis.Strings(reply, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attribute %q: %w", names[i], err)
		}
		raw[names[i]] = members
	}
	return NewAttributeValues(raw), nil
}

type redisCommand struct {
	name string
	args redis.Args
}

// SaveIdentity upserts an identity by realm and username and replaces its attributes
func (r *RedisIdentityRepository) SaveIdentity(ctx context.Context, identity Identity) (Identity, error) {
	identity = prepareIdentity(identity)

	if existing, err := r.FindIdentityByUsername(ctx, identity.Realm, identity.Username); err == nil {
		identity.ID = existing.ID
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return Identity{}, err
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	oldNames, err := redis.Strings(redis.DoContext(conn, ctx, "SMEMBERS", r.attributeNamesKey(identity.ID)))
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read attribute names: %w", err)
	}

	commands := []redisCommand{
		{"MULTI", nil},
		{"HSET", redis.Args{}.Add(r.principalKey(identity.Realm, identity.Username)).
			Add("id", identity.ID.String()).
			Add("realm", identity.Realm).
			Add("username", identity.Username).
			Add("created_at", identity.CreatedAt.Format(time.RFC3339))},
	}
	for _, name := range oldNames {
		commands = append(commands, redisCommand{"DEL", redis.Args{r.attributeKey(identity.ID, name)}})
	}
	commands = append(commands, redisCommand{"DEL", redis.Args{r.attributeNamesKey(identity.ID)}})
	for name, vals := range identity.Attributes {
		commands = append(commands,
			redisCommand{"SADD", redis.Args{}.Add(r.attributeKey(identity.ID, name)).AddFlat(vals)},
			redisCommand{"SADD", redis.Args{r.attributeNamesKey(identity.ID), name}},
		)
	}
	for _, cmd := range commands {
		if err := conn.Send(cmd.name, cmd.args...); err != nil {
			return Identity{}, fmt.Errorf("failed to queue %s: %w", cmd.name, err)
		}
	}
	if _, err := redis.DoContext(conn, ctx, "EXEC"); err != nil {
		return Identity{}, fmt.Errorf("failed to save identity: %w", err)
	}

	return identity, nil
}
