// Package action 定义引擎对外暴露的封闭操作集合
package action

// Action 操作名称，用于路由绑定、错误信息与指标标签
type Action string

const (
	SetReaction Action = "setReaction"

	PostComment      Action = "postComment"
	ListRootComments Action = "listRootComments"
	ListReplies      Action = "listReplies"

	Subscribe         Action = "subscribe"
	Unsubscribe       Action = "unsubscribe"
	ListNotifications Action = "listNotifications"

	FileReport         Action = "fileReport"
	ListPendingReports Action = "listPendingReports"
	ResolveReport      Action = "resolveReport"
	SetVideoStatus     Action = "setVideoStatus"
	RemoveComment      Action = "removeComment"
	ModerationStats    Action = "moderationStats"
	ListUsers          Action = "listUsers"
	VerifyUser         Action = "verifyUser"
	ChangeRole         Action = "changeRole"

	Publish       Action = "publish"
	ListVideos    Action = "listVideos"
	GetVideo      Action = "getVideo"
	ListAllVideos Action = "listAllVideos"

	GetUser Action = "getUser"
)

var all = []Action{
	SetReaction,
	PostComment, ListRootComments, ListReplies,
	Subscribe, Unsubscribe, ListNotifications,
	FileReport, ListPendingReports, ResolveReport, SetVideoStatus, RemoveComment,
	ModerationStats, ListUsers, VerifyUser, ChangeRole,
	Publish, ListVideos, GetVideo, ListAllVideos,
	GetUser,
}

// All 返回全部已知操作（副本）
func All() []Action {
	out := make([]Action, len(all))
	copy(out, all)
	return out
}

// Valid 判断是否为已知操作
func (a Action) Valid() bool {
	for _, known := range all {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string {
	return string(a)
}
