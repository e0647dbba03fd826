package dynamodb

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/oksasatya/taskhive/internal/domain/entity"
)

// Attribute names
const (
	attrUsername   = "username"
	attrUserID     = "userId"
	attrSortKey    = "SK"
	attrEntityType = "entityType"
	attrTabs       = "tabs"
	attrTabOrder   = "tabOrder"
	attrActiveTab  = "activeTabId"
	attrCreatedAt  = "createdAt"
	attrUpdatedAt  = "updatedAt"
	attrText       = "text"
	attrDesc       = "description"
	attrCompleted  = "completed"
	attrPassword   = "passwordHash"
)

const (
	entityProfile = "PROFILE"
	entityTask    = "TASK"
	taskPrefix    = "TASK#"
)

func taskSortKey(k entity.TaskKey) string {
	return taskPrefix + k.TabID + "#" + k.TaskID
}

func tabPrefix(tabID string) string {
	return taskPrefix + tabID + "#"
}

func str(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func dataKey(userID, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrUserID:  str(userID),
		attrSortKey: str(sk),
	}
}

func userKey(username string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{attrUsername: str(username)}
}
