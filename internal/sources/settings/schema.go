package settings

// File is the admin settings YAML document.
//
//	containers:
//	  challenges: HUB-1
//	  feedback: FB-1
//	admins: [alice]
//	containerAdmins:
//	  HUB-1: [bob]
type File struct {
	Containers      Containers          `yaml:"containers"`
	Admins          []string            `yaml:"admins,omitempty"`
	ContainerAdmins map[string][]string `yaml:"containerAdmins,omitempty"`
}

type Containers struct {
	Challenges string `yaml:"challenges,omitempty"`
	Feedback   string `yaml:"feedback,omitempty"`
}
