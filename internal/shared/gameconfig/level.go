package gameconfig

type Level struct {
	Level       int `mapstructure:"level"`
	Experience  int `mapstructure:"experience"`
	Health      int `mapstructure:"health"`
	Mana        int `mapstructure:"mana"`
	SkillPoints int `mapstructure:"skill_points"`
	// NextLevel 距下一级所需经验，Load 时按下一行计算，满级为 0
	NextLevel int `mapstructure:"-"`
}
