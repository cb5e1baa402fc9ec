package acquiesce

// DefaultRoles lists the standard chat-message roles, ported from
// original_source/src/lib.rs's DEFAULT_ROLES. Package chatmodel does not
// check message roles against it.
var DefaultRoles = []string{"user", "assistant", "system", "developer", "tool"}

// DefaultNameKey is the conventional JSON field name for the invoked tool's
// name in a JsonObject/JsonArray tool call. Nothing in this module
// substitutes it for an empty ToolCall.NameKey; NameKey is used as given.
const DefaultNameKey = "name"

// DefaultArgumentKeys lists the conventional JSON field names for a
// JsonObject/JsonArray tool call's arguments payload ("arguments" first,
// then the common model alias "parameters"), ported from
// original_source/src/lib.rs. Nothing in this module reads this list: a
// tool call matches only its own ToolCall.ArgumentKey.
var DefaultArgumentKeys = []string{"arguments", "parameters"}
