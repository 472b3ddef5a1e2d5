package protocol

// Node-manager protocol family. Tags are assigned by the schema
// generation step; tag 0 is reserved and never sent.
const (
	NodeMessageMin int64 = 1

	NodeRegisterClientRequest int64 = 1
	NodeRegisterClientReply   int64 = 2
	NodeSubmitTask            int64 = 3
	NodeTaskDone              int64 = 4
	NodeDisconnectClient      int64 = 5
	NodeGetTask               int64 = 6
	NodeExecuteTask           int64 = 7
	NodeReconstructObjects    int64 = 8
	NodeNotifyUnblocked       int64 = 9
	NodeForwardTaskRequest    int64 = 10

	NodeMessageMax int64 = 10
)

var nodeMessageNames = []string{
	"RegisterClientRequest",
	"RegisterClientReply",
	"SubmitTask",
	"TaskDone",
	"DisconnectClient",
	"GetTask",
	"ExecuteTask",
	"ReconstructObjects",
	"NotifyUnblocked",
	"ForwardTaskRequest",
}

// Object-transfer protocol family. Independent tag space from the
// node-manager family, with its own disconnect sentinel.
const (
	ObjectMessageMin int64 = 1

	ObjectConnectClient    int64 = 1
	ObjectDisconnectClient int64 = 2
	ObjectPushRequest      int64 = 3
	ObjectPullRequest      int64 = 4
	ObjectFreeRequest      int64 = 5

	ObjectMessageMax int64 = 5
)

var objectMessageNames = []string{
	"ConnectClient",
	"DisconnectClient",
	"PushRequest",
	"PullRequest",
	"FreeRequest",
}

// NodeManagerTable builds the name table for the node-manager family.
func NodeManagerTable() (NameTable, error) {
	return BuildNameTable("node manager", nodeMessageNames, NodeMessageMin, NodeMessageMax)
}

// ObjectManagerTable builds the name table for the object-transfer family.
func ObjectManagerTable() (NameTable, error) {
	return BuildNameTable("object manager", objectMessageNames, ObjectMessageMin, ObjectMessageMax)
}
