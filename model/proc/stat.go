package proc

// Stat is a snapshot of one process record as reported to ps
type Stat struct {
	Pid      int         `json:"pid" yaml:"pid"`
	PPid     int         `json:"ppid" yaml:"ppid"`
	Name     string      `json:"name" yaml:"name"`
	Priority int         `json:"priority" yaml:"priority"`
	State    State       `json:"state" yaml:"state"`
	RunTime  int         `json:"rtime" yaml:"rtime"`
	WaitTime int         `json:"wtime" yaml:"wtime"`
	NRun     int         `json:"nrun" yaml:"nrun"`
	Level    int         `json:"currq" yaml:"currq"`
	Ticks    [NQueue]int `json:"ticks" yaml:"ticks"`
}

// Accounting describes the lifetime of a reaped process
type Accounting struct {
	Pid          int         `json:"pid" yaml:"pid"`
	Name         string      `json:"name" yaml:"name"`
	CreationTick int         `json:"ctime" yaml:"ctime"`
	EndTick      int         `json:"etime" yaml:"etime"`
	RunTime      int         `json:"rtime" yaml:"rtime"`
	WaitTime     int         `json:"wtime" yaml:"wtime"`
	NRun         int         `json:"nrun" yaml:"nrun"`
	Ticks        [NQueue]int `json:"ticks" yaml:"ticks"`
}

// Lifetime returns number of ticks between creation and exit
func (a *Accounting) Lifetime() int {
	return a.EndTick - a.CreationTick
}
