package objects

// Avatar is the humanoid rig of a model
type Avatar struct {
	Name             string
	AvatarSize       uint32
	Constant         AvatarConstant
	TOS              map[uint32]string
	HumanDescription *HumanDescription
}

type AvatarConstant struct {
	Skeleton                     Skeleton
	SkeletonPose                 SkeletonPose
	DefaultPose                  *SkeletonPose
	SkeletonNameIDArray          []uint32
	Human                        Human
	HumanSkeletonIndexArray      []int32
	HumanSkeletonReverseIndex    []int32
	RootMotionBoneIndex          int32
	RootMotionBoneX              XForm
	RootMotionSkeleton           *Skeleton
	RootMotionSkeletonPose       *SkeletonPose
	RootMotionSkeletonIndexArray []int32
	UseNextLevelForRootMotion    bool
}

type Node struct {
	ParentID int32
	AxesID   int32
}

type Limit struct {
	Min VarVector
	Max VarVector
}

type Axes struct {
	PreQ   Vector4
	PostQ  Vector4
	Sgn    VarVector
	Limit  Limit
	Length float32
	Type   uint32
}

type Skeleton struct {
	Nodes []Node
	IDs   []uint32
	Axes  []Axes
}

type SkeletonPose struct {
	X []XForm
}

type Handle struct {
	X                XForm
	ParentHumanIndex uint32
	ID               uint32
}

type Collider struct {
	X                                     XForm
	Type                                  uint32
	XMotionType, YMotionType, ZMotionType uint32
	MinLimitX, MaxLimitX                  float32
	MaxLimitY, MaxLimitZ                  float32
}

type Human struct {
	RootX          XForm
	Skeleton       Skeleton
	SkeletonPose   SkeletonPose
	LeftHand       []int32
	RightHand      []int32
	Handles        []Handle
	Colliders      []Collider
	HumanBoneIndex []int32
	HumanBoneMass  []float32
	ColliderIndex  []int32

	Scale, ArmTwist, ForeArmTwist, UpperLegTwist float32
	LegTwist, ArmStretch, LegStretch, FeetSpacing float32

	HasLeftHand  bool
	HasRightHand bool
	HasTDoF      bool
}

type SkeletonBoneLimit struct {
	Min, Max, Value Vector3
	Length          float32
	Modified        bool
}

type HumanBone struct {
	BoneName  string
	HumanName string
	Limit     SkeletonBoneLimit
}

type SkeletonBone struct {
	Name       string
	ParentName string
	Position   Vector3
	Rotation   Quaternion
	Scale      Vector3
}

// HumanDescription is the import-time humanoid mapping, serialized from 2019
type HumanDescription struct {
	Human    []HumanBone
	Skeleton []SkeletonBone

	ArmTwist, ForeArmTwist, UpperLegTwist, LegTwist float32
	ArmStretch, LegStretch, FeetSpacing, GlobalScale float32

	RootMotionBoneName string
	HasTranslationDoF  bool
	HasExtraRoot       bool
	SkeletonHasParents bool
}

// DecodeAvatar reads an Avatar object
func DecodeAvatar(c Cursor) (*Avatar, Cursor, error) {
	a := &Avatar{}
	a.Name, c = c.AlignedString()
	a.AvatarSize, c = c.U32()
	a.Constant, c = readAvatarConstant(c)
	c = c.Align(4)

	var n int
	n, c = c.count(8)
	a.TOS = make(map[uint32]string, n)
	for range n {
		var id uint32
		var path string
		id, c = c.U32()
		path, c = c.AlignedString()
		if c.err != nil {
			break
		}
		a.TOS[id] = path
	}

	if c.version.AtLeast(2019) {
		var hd HumanDescription
		hd, c = readHumanDescription(c)
		a.HumanDescription = &hd
	}
	if c.err != nil {
		return nil, c, c.err
	}
	return a, c, nil
}

// FindBonePath resolves a bone path hash through the TOS table
func (a *Avatar) FindBonePath(hash uint32) (string, bool) {
	p, ok := a.TOS[hash]
	return p, ok
}

func readAvatarConstant(c Cursor) (AvatarConstant, Cursor) {
	var ac AvatarConstant
	since43 := c.version.AtLeast(4, 3)

	ac.Skeleton, c = readSkeleton(c)
	ac.SkeletonPose, c = readSkeletonPose(c)
	if since43 {
		var pose SkeletonPose
		pose, c = readSkeletonPose(c)
		ac.DefaultPose = &pose
		ac.SkeletonNameIDArray, c = Array(c, Cursor.U32)
	}
	ac.Human, c = readHuman(c)
	ac.HumanSkeletonIndexArray, c = Array(c, Cursor.I32)
	if since43 {
		ac.HumanSkeletonReverseIndex, c = Array(c, Cursor.I32)
	}
	ac.RootMotionBoneIndex, c = c.I32()
	ac.RootMotionBoneX, c = c.XForm()
	if since43 {
		var sk Skeleton
		var pose SkeletonPose
		sk, c = readSkeleton(c)
		pose, c = readSkeletonPose(c)
		ac.RootMotionSkeleton, ac.RootMotionSkeletonPose = &sk, &pose
		ac.RootMotionSkeletonIndexArray, c = Array(c, Cursor.I32)
	}
	if c.variant.Traits().RootMotionNextLevel {
		ac.UseNextLevelForRootMotion, c = c.Bool()
	}
	return ac, c
}

func readNode(c Cursor) (Node, Cursor) {
	var n Node
	n.ParentID, c = c.I32()
	n.AxesID, c = c.I32()
	return n, c
}

func readAxes(c Cursor) (Axes, Cursor) {
	var a Axes
	a.PreQ, c = c.Vector4()
	a.PostQ, c = c.Vector4()
	a.Sgn, c = c.VarVector()
	a.Limit, c = readLimit(c)
	a.Length, c = c.F32()
	a.Type, c = c.U32()
	return a, c
}

func readLimit(c Cursor) (Limit, Cursor) {
	var l Limit
	l.Min, c = c.VarVector()
	l.Max, c = c.VarVector()
	return l, c
}

func readSkeleton(c Cursor) (Skeleton, Cursor) {
	var s Skeleton
	s.Nodes, c = Array(c, readNode)
	s.IDs, c = Array(c, Cursor.U32)
	s.Axes, c = Array(c, readAxes)
	return s, c
}

func readSkeletonPose(c Cursor) (SkeletonPose, Cursor) {
	var p SkeletonPose
	p.X, c = Array(c, Cursor.XForm)
	return p, c
}

func readHandle(c Cursor) (Handle, Cursor) {
	var h Handle
	h.X, c = c.XForm()
	h.ParentHumanIndex, c = c.U32()
	h.ID, c = c.U32()
	return h, c
}

func readCollider(c Cursor) (Collider, Cursor) {
	var col Collider
	col.X, c = c.XForm()
	col.Type, c = c.U32()
	col.XMotionType, c = c.U32()
	col.YMotionType, c = c.U32()
	col.ZMotionType, c = c.U32()
	col.MinLimitX, c = c.F32()
	col.MaxLimitX, c = c.F32()
	col.MaxLimitY, c = c.F32()
	col.MaxLimitZ, c = c.F32()
	return col, c
}

func readHuman(c Cursor) (Human, Cursor) {
	var h Human
	legacy := c.version.Below(2018, 2)

	h.RootX, c = c.XForm()
	h.Skeleton, c = readSkeleton(c)
	h.SkeletonPose, c = readSkeletonPose(c)
	h.LeftHand, c = Array(c, Cursor.I32)
	h.RightHand, c = Array(c, Cursor.I32)
	if legacy {
		h.Handles, c = Array(c, readHandle)
		h.Colliders, c = Array(c, readCollider)
	}
	h.HumanBoneIndex, c = Array(c, Cursor.I32)
	h.HumanBoneMass, c = Array(c, Cursor.F32)
	if legacy {
		h.ColliderIndex, c = Array(c, Cursor.I32)
	}

	h.Scale, c = c.F32()
	h.ArmTwist, c = c.F32()
	h.ForeArmTwist, c = c.F32()
	h.UpperLegTwist, c = c.F32()
	h.LegTwist, c = c.F32()
	h.ArmStretch, c = c.F32()
	h.LegStretch, c = c.F32()
	h.FeetSpacing, c = c.F32()
	h.HasLeftHand, c = c.Bool()
	h.HasRightHand, c = c.Bool()
	if c.version.AtLeast(5, 2) {
		h.HasTDoF, c = c.Bool()
	}
	return h, c.Align(4)
}

func readHumanBone(c Cursor) (HumanBone, Cursor) {
	var b HumanBone
	b.BoneName, c = c.AlignedString()
	b.HumanName, c = c.AlignedString()
	b.Limit.Min, c = c.Vector3()
	b.Limit.Max, c = c.Vector3()
	b.Limit.Value, c = c.Vector3()
	b.Limit.Length, c = c.F32()
	b.Limit.Modified, c = c.Bool()
	return b, c.Align(4)
}

func readSkeletonBone(c Cursor) (SkeletonBone, Cursor) {
	var b SkeletonBone
	b.Name, c = c.AlignedString()
	b.ParentName, c = c.AlignedString()
	b.Position, c = c.Vector3()
	b.Rotation, c = c.Quaternion()
	b.Scale, c = c.Vector3()
	return b, c
}

func readHumanDescription(c Cursor) (HumanDescription, Cursor) {
	var d HumanDescription
	d.Human, c = Array(c, readHumanBone)
	d.Skeleton, c = Array(c, readSkeletonBone)
	d.ArmTwist, c = c.F32()
	d.ForeArmTwist, c = c.F32()
	d.UpperLegTwist, c = c.F32()
	d.LegTwist, c = c.F32()
	d.ArmStretch, c = c.F32()
	d.LegStretch, c = c.F32()
	d.FeetSpacing, c = c.F32()
	d.GlobalScale, c = c.F32()
	d.RootMotionBoneName, c = c.AlignedString()
	d.HasTranslationDoF, c = c.Bool()
	d.HasExtraRoot, c = c.Bool()
	d.SkeletonHasParents, c = c.Bool()
	return d, c.Align(4)
}
