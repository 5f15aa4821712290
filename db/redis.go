// api/db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

// ErrRedisUnavailable is returned when a cache helper is called before
// InitRedis. Callers treat cache errors as misses, so the API still works
// without Redis.
var ErrRedisUnavailable = errors.New("redis client not initialized")

func redisReady() error {
	if RedisClient == nil {
		return ErrRedisUnavailable
	}
	return nil
}

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// Node policies are access-control rows; cache them encrypted like any
// other sensitive payload.
func CacheNodePolicies(ctx context.Context, nodeID string, policies []model.NodePolicy) error {
	if err := redisReady(); err != nil {
		return err
	}
	policiesJSON, err := json.Marshal(policies)
	if err != nil {
		return fmt.Errorf("failed to marshal policies: %w", err)
	}

	encrypted, err := encrypt(policiesJSON)
	if err != nil {
		return fmt.Errorf("failed to encrypt policies: %w", err)
	}

	key := fmt.Sprintf("node-policies:%s", nodeID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encrypted), defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache policies: %w", err)
	}

	logger.Debug("Node policies cached successfully", zap.String("nodeID", nodeID))
	return nil
}

func GetCachedNodePolicies(ctx context.Context, nodeID string) ([]model.NodePolicy, error) {
	if err := redisReady(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("node-policies:%s", nodeID)
	encryptedStr, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get policies from cache: %w", err)
	}

	encrypted, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode policies: %w", err)
	}

	policiesJSON, err := decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt policies: %w", err)
	}

	var policies []model.NodePolicy
	if err := json.Unmarshal(policiesJSON, &policies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policies: %w", err)
	}
	return policies, nil
}

func DeleteCachedNodePolicies(ctx context.Context, nodeID string) error {
	if err := redisReady(); err != nil {
		return err
	}
	key := fmt.Sprintf("node-policies:%s", nodeID)
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete policies from cache: %w", err)
	}
	return nil
}

func CacheNode(ctx context.Context, node *model.TimelineNode) error {
	if err := redisReady(); err != nil {
		return err
	}
	nodeJSON, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	key := fmt.Sprintf("node:%s", node.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, nodeJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache node: %w", err)
	}

	logger.Debug("Node cached successfully", zap.String("nodeID", node.ID))
	return nil
}

func GetCachedNode(ctx context.Context, nodeID string) (*model.TimelineNode, error) {
	if err := redisReady(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("node:%s", nodeID)
	nodeJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get node from cache: %w", err)
	}

	var node model.TimelineNode
	if err := json.Unmarshal([]byte(nodeJSON), &node); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return &node, nil
}

func DeleteCachedNode(ctx context.Context, nodeID string) error {
	if err := redisReady(); err != nil {
		return err
	}
	key := fmt.Sprintf("node:%s", nodeID)
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete node from cache: %w", err)
	}
	return nil
}

func CacheOrganization(ctx context.Context, organization *model.Organization) error {
	if err := redisReady(); err != nil {
		return err
	}
	organizationJSON, err := json.Marshal(organization)
	if err != nil {
		return fmt.Errorf("failed to marshal organization: %w", err)
	}

	key := fmt.Sprintf("organization:%s", organization.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, organizationJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache organization: %w", err)
	}
	return nil
}

func GetCachedOrganization(ctx context.Context, organizationID string) (*model.Organization, error) {
	if err := redisReady(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("organization:%s", organizationID)
	organizationJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get organization from cache: %w", err)
	}

	var organization model.Organization
	if err := json.Unmarshal([]byte(organizationJSON), &organization); err != nil {
		return nil, fmt.Errorf("failed to unmarshal organization: %w", err)
	}
	return &organization, nil
}

func DeleteCachedOrganization(ctx context.Context, organizationID string) error {
	if err := redisReady(); err != nil {
		return err
	}
	key := fmt.Sprintf("organization:%s", organizationID)
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete organization from cache: %w", err)
	}
	return nil
}

// Session support for bearer tokens that are opaque session ids rather than
// JWTs. The auth middleware falls back to this lookup.
func CreateSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := redisReady(); err != nil {
		return err
	}
	key := fmt.Sprintf("session:%s", sessionID)
	if err := RedisClient.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func GetSessionUserID(ctx context.Context, sessionID string) (string, error) {
	if err := redisReady(); err != nil {
		return "", err
	}
	key := fmt.Sprintf("session:%s", sessionID)
	userID, err := RedisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	return userID, nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	if err := redisReady(); err != nil {
		return false, err
	}
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

// LockHierarchy serializes structural mutations on one owner's forest. The
// cycle check and the parent-pointer write happen under this lock, so two
// concurrent moves cannot both pass the check against stale state.
func LockHierarchy(ctx context.Context, ownerID string, ttl time.Duration) (bool, error) {
	if err := redisReady(); err != nil {
		return false, err
	}
	key := fmt.Sprintf("lock:hierarchy:%s", ownerID)
	locked, err := RedisClient.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire hierarchy lock: %w", err)
	}
	logger.Debug("Hierarchy lock acquisition attempt",
		zap.String("ownerID", ownerID),
		zap.Bool("locked", locked))
	return locked, nil
}

func UnlockHierarchy(ctx context.Context, ownerID string) error {
	if err := redisReady(); err != nil {
		return err
	}
	key := fmt.Sprintf("lock:hierarchy:%s", ownerID)
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release hierarchy lock: %w", err)
	}
	return nil
}
