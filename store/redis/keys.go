package redis

// Key prefixes for primary entity storage.
const (
	prefixIntegration  = "gridhook:intg:"
	prefixWebhook      = "gridhook:wh:"
	prefixDelivery     = "gridhook:del:"
	prefixSubscription = "gridhook:sub:"
	prefixTemplate     = "gridhook:tpl:"
	prefixDLQ          = "gridhook:dlq:"
)

// Key prefixes for unique indexes.
const (
	uniqueTemplateName = "gridhook:u:tpl:name:" // + ownerID + ":" + name
)

// Key prefixes for sorted set indexes (scored by creation time unless noted).
const (
	zIntegrationOwner = "gridhook:z:intg:owner:" // + owner ID
	zWebhookOwner     = "gridhook:z:wh:owner:"   // + owner ID
	zDeliveryWebhook  = "gridhook:z:del:wh:"     // + webhook ID
	zDeliveryDue      = "gridhook:z:del:due"     // scored by next_attempt_at
	zSubscriptionOwn  = "gridhook:z:sub:owner:"  // + owner ID
	zTemplateOwner    = "gridhook:z:tpl:owner:"  // + owner ID
	zDLQAll           = "gridhook:z:dlq:all"     // scored by failed_at
	zDLQOwner         = "gridhook:z:dlq:owner:"  // + owner ID, scored by failed_at
)

// Hash keys for counters.
const (
	hWebhookCounters = "gridhook:h:wh:counters:" // + webhook ID
	hDeliveryStates  = "gridhook:h:del:states"   // field per state
	hSubscriptionCnt = "gridhook:c:sub:total"    // plain integer key
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// templateNameKey returns the unique index key for an owner's template name.
func templateNameKey(ownerID, name string) string {
	return uniqueTemplateName + ownerID + ":" + name
}
