package repository

import (
	"github.com/redis/go-redis/v9"
)

// createScript writes a challenge record under its primary, uid and secret
// keys in one atomic step. An active throttle window rejects the call with a
// 429 error carrying the original creation context. Replacing an existing
// record erases the old record's sibling keys and stores their names in the
// new record's related field.
//
// KEYS: primary, uid (primary when absent), secret (primary when absent), throttle
// ARGV: id, action, uid, ttl, throttle, created, secret, settings, metadata,
//
//	prefix, separator, throttle reason
const createScript = `
local idKey = KEYS[1]
local uidKey = KEYS[2]
local secretKey = KEYS[3]
local throttleKey = KEYS[4]

local id = ARGV[1]
local action = ARGV[2]
local uid = ARGV[3]
local ttl = tonumber(ARGV[4])
local throttle = tonumber(ARGV[5])
local created = ARGV[6]
local secret = ARGV[7]
local settings = ARGV[8]
local metadata = ARGV[9]
local prefix = ARGV[10]
local sep = ARGV[11]
local reason = ARGV[12]

if redis.call("EXISTS", throttleKey) == 1 then
  local active = redis.call("GET", throttleKey)
  return redis.error_reply("429 " .. active)
end

local related = {}
if redis.call("EXISTS", idKey) == 1 then
  local oldUID = redis.call("HGET", idKey, "uid")
  local oldSecret = redis.call("HGET", idKey, "secret")
  table.insert(related, idKey)
  if oldUID and oldUID ~= "" then
    local oldUIDKey = prefix .. sep .. "-" .. sep .. "-" .. sep .. "uid" .. sep .. oldUID
    redis.call("DEL", oldUIDKey)
    table.insert(related, oldUIDKey)
  end
  if oldSecret and oldSecret ~= "" then
    local oldSecretKey = prefix .. sep .. action .. sep .. id .. sep .. "secret" .. sep .. oldSecret
    redis.call("DEL", oldSecretKey)
    table.insert(related, oldSecretKey)
  end
  redis.call("DEL", idKey)
end

local record = {
  "id", id,
  "action", action,
  "created", created,
  "ttl", ARGV[4],
  "throttle", ARGV[5],
  "settings", settings,
  "metadata", metadata,
}
if uid ~= "" then
  table.insert(record, "uid")
  table.insert(record, uid)
end
if secret ~= "" then
  table.insert(record, "secret")
  table.insert(record, secret)
end
if #related > 0 then
  table.insert(record, "related")
  table.insert(record, cjson.encode(related))
end

local keys = { idKey }
if uidKey ~= idKey then
  table.insert(keys, uidKey)
end
if secretKey ~= idKey then
  table.insert(keys, secretKey)
end
for i = 1, #keys do
  redis.call("DEL", keys[i])
  redis.call("HSET", keys[i], unpack(record))
  if ttl > 0 then
    redis.call("EXPIRE", keys[i], ttl)
  end
end

if throttle > 0 then
  redis.call("SET", throttleKey, reason, "EX", throttle)
end

return related
`

// regenerateScript swaps the record's secret, repointing the secret key. The
// caller read the record first; a mismatch between that read's secret and the
// stored one means a concurrent mutation won and the call fails with 409.
//
// KEYS: primary, uid (primary when absent), old secret, new secret
// ARGV: old secret, new secret
const regenerateScript = `
local idKey = KEYS[1]
local uidKey = KEYS[2]
local oldSecretKey = KEYS[3]
local newSecretKey = KEYS[4]
local oldSecret = ARGV[1]
local newSecret = ARGV[2]

local current = redis.call("HGET", idKey, "secret")
if not current or current ~= oldSecret then
  return redis.error_reply("409")
end

local related = {}
local stored = redis.call("HGET", idKey, "related")
if stored and stored ~= "" then
  related = cjson.decode(stored)
end
table.insert(related, oldSecret)

redis.call("HSET", idKey, "secret", newSecret, "related", cjson.encode(related))

local ttl = redis.call("PTTL", idKey)
local record = redis.call("HGETALL", idKey)

local mirrors = {}
if uidKey ~= idKey then
  table.insert(mirrors, uidKey)
end
if newSecretKey ~= idKey then
  table.insert(mirrors, newSecretKey)
end
for i = 1, #mirrors do
  redis.call("DEL", mirrors[i])
  redis.call("HSET", mirrors[i], unpack(record))
  if ttl > 0 then
    redis.call("PEXPIRE", mirrors[i], ttl)
  end
end

if oldSecretKey ~= idKey then
  redis.call("DEL", oldSecretKey)
end

return cjson.encode(related)
`

// verifyScript reads a record through any of its keys, stamps the verified
// timestamp on every key of the record (or erases the record), and returns
// the record fields flattened, with isFirstVerification appended. The
// throttle key is left untouched so the throttle window survives erasure.
//
// KEYS: lookup key
// ARGV: now (unix ms), erase ("true"/"false"), prefix, separator
const verifyScript = `
local data = redis.call("HGETALL", KEYS[1])
if #data == 0 then
  return redis.error_reply("404")
end

local record = {}
for i = 1, #data, 2 do
  record[data[i]] = data[i + 1]
end

local prefix = ARGV[3]
local sep = ARGV[4]
local idKey = prefix .. sep .. record.action .. sep .. record.id
local keys = { idKey }
if record.uid and record.uid ~= "" then
  table.insert(keys, prefix .. sep .. "-" .. sep .. "-" .. sep .. "uid" .. sep .. record.uid)
end
if record.secret and record.secret ~= "" then
  table.insert(keys, prefix .. sep .. record.action .. sep .. record.id .. sep .. "secret" .. sep .. record.secret)
end

local isFirst = "false"
if not record.verified then
  isFirst = "true"
  record.verified = ARGV[1]
end

if ARGV[2] == "true" then
  for i = 1, #keys do
    redis.call("DEL", keys[i])
  end
else
  for i = 1, #keys do
    if redis.call("EXISTS", keys[i]) == 1 then
      redis.call("HSET", keys[i], "verified", record.verified)
    end
  end
end

local out = {}
for i = 1, #data, 2 do
  if data[i] ~= "verified" then
    table.insert(out, data[i])
    table.insert(out, data[i + 1])
  end
end
table.insert(out, "verified")
table.insert(out, record.verified)
table.insert(out, "isFirstVerification")
table.insert(out, isFirst)

return out
`

// removeScript deletes every key of a record. The secret observed by the
// caller's read guards against racing with a regenerate: a mismatch fails
// with 409 and deletes nothing.
//
// KEYS: primary, then the remaining record keys including the throttle key
// ARGV: secret
const removeScript = `
local current = redis.call("HGET", KEYS[1], "secret")
if (current or "") ~= ARGV[1] then
  return redis.error_reply("409")
end

for i = 1, #KEYS do
  redis.call("DEL", KEYS[i])
end

return redis.status_reply("OK")
`

var (
	createLua     = redis.NewScript(createScript)
	regenerateLua = redis.NewScript(regenerateScript)
	verifyLua     = redis.NewScript(verifyScript)
	removeLua     = redis.NewScript(removeScript)
)
